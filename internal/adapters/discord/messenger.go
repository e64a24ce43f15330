package discord

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"dino-daily-bot/internal/domain"
	"dino-daily-bot/internal/infra/metrics"
	"dino-daily-bot/internal/usecase/delivery"
	"dino-daily-bot/internal/usecase/schedule"
)

// время жизни ветки обсуждения до авто-архивации, минуты
const threadArchiveMinutes = 1440

// Bot оборачивает сессию Discord и реализует domain.Messenger.
type Bot struct {
	session    *discordgo.Session
	log        zerolog.Logger
	scheduleUC *schedule.Service
	deliveryUC *delivery.Service

	// startCycles запускается из обработчика ready ровно один раз
	startCycles func()
	startOnce   sync.Once
}

// NewBot создаёт сессию и навешивает обработчики событий.
// Сервис доставки подключается позже через AttachDelivery: он сам
// использует бота как Messenger.
func NewBot(token string, log zerolog.Logger, scheduleUC *schedule.Service, startCycles func()) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("создание сессии: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session:     session,
		log:         log,
		scheduleUC:  scheduleUC,
		startCycles: startCycles,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onGuildDelete)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// AttachDelivery подключает сервис доставки. Вызывается до Open.
func (b *Bot) AttachDelivery(deliveryUC *delivery.Service) {
	b.deliveryUC = deliveryUC
}

// Open открывает соединение с гейтвеем.
func (b *Bot) Open() error {
	return b.session.Open()
}

// Close закрывает соединение.
func (b *Bot) Close() error {
	return b.session.Close()
}

// HasGuild сообщает, числится ли бот в гильдии.
func (b *Bot) HasGuild(guildID int64) bool {
	id := strconv.FormatInt(guildID, 10)
	b.session.State.RLock()
	defer b.session.State.RUnlock()
	for _, guild := range b.session.State.Guilds {
		if guild.ID == id {
			return true
		}
	}
	return false
}

// SendDaily публикует контент дня в канал и возвращает id сообщения.
func (b *Bot) SendDaily(channelID int64, content *domain.Content) (string, error) {
	start := time.Now()
	msg, err := b.session.ChannelMessageSendComplex(strconv.FormatInt(channelID, 10), &discordgo.MessageSend{
		Embeds: BuildDailyEmbeds(content),
	})
	metrics.ObserveNetworkRequest("discord", "send_daily", strconv.FormatInt(channelID, 10), start, err)
	if err != nil {
		return "", mapSendError(err)
	}
	return msg.ID, nil
}

// OpenThread создаёт ветку обсуждения под сообщением.
func (b *Bot) OpenThread(channelID int64, messageID, title string) error {
	start := time.Now()
	_, err := b.session.MessageThreadStart(strconv.FormatInt(channelID, 10), messageID, title, threadArchiveMinutes)
	metrics.ObserveNetworkRequest("discord", "open_thread", strconv.FormatInt(channelID, 10), start, err)
	if err != nil {
		return mapSendError(err)
	}
	return nil
}

// mapSendError переводит отказ в правах в domain.ErrForbidden,
// чтобы планировщик мог отличить его от прочих ошибок.
func mapSendError(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeMissingPermissions {
			return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
		}
	}
	return err
}
