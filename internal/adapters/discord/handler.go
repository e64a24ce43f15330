package discord

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"dino-daily-bot/internal/usecase/delivery"
	"dino-daily-bot/internal/usecase/schedule"
)

const (
	colorGreen = 0x2ecc71
	colorRed   = 0xe74c3c
	colorBlue  = 0x3498db
)

var adminPermission int64 = discordgo.PermissionAdministrator

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "initialize",
			Description:              "Настроить ежедневную отправку динозавра дня",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "time",
					Description: "Время отправки в формате HH:MM",
					Required:    true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "timezone",
					Description:  "Часовой пояс сервера (IANA)",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Канал для ежедневных сообщений",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ampm",
					Description: "AM или PM, если время 12-часовое",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Morning (AM)", Value: "AM"},
						{Name: "Evening (PM)", Value: "PM"},
					},
				},
			},
		},
		{
			Name:                     "edit-configuration",
			Description:              "Изменить настройки рассылки",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "time",
					Description: "Новое время отправки в формате HH:MM",
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "timezone",
					Description:  "Новый часовой пояс сервера (IANA)",
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Новый канал для ежедневных сообщений",
				},
			},
		},
		{
			Name:                     "remove-server",
			Description:              "Отключить рассылку на этом сервере",
			DefaultMemberPermissions: &adminPermission,
		},
		{
			Name:                     "send-daily",
			Description:              "Отправить динозавра дня прямо сейчас",
			DefaultMemberPermissions: &adminPermission,
		},
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("бот подключён")

	for _, cmd := range commandDefinitions() {
		if _, err := s.ApplicationCommandCreate(r.User.ID, "", cmd); err != nil {
			b.log.Error().Str("command", cmd.Name).Err(err).Msg("не удалось зарегистрировать команду")
		}
	}

	b.startOnce.Do(func() {
		b.log.Info().Msg("запускаем фоновые циклы")
		b.startCycles()
	})
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	// При подключении гейтвей присылает GuildCreate для всех гильдий;
	// приветствуем только по-настоящему новые.
	if time.Since(g.JoinedAt) > time.Minute {
		return
	}
	if g.SystemChannelID == "" {
		return
	}
	b.log.Info().Str("guild", g.Name).Msg("бот добавлен в гильдию")
	_, err := s.ChannelMessageSendEmbed(g.SystemChannelID, &discordgo.MessageEmbed{
		Title:       "Спасибо, что добавили меня!",
		Description: "Чтобы настроить ежедневную отправку, выполните `/initialize` и укажите время, часовой пояс и канал.",
		Color:       colorBlue,
	})
	if err != nil {
		b.log.Warn().Str("guild", g.Name).Err(err).Msg("не удалось отправить приветствие")
	}
}

func (b *Bot) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Unavailable приходит при сбое шарда, а не при исключении бота.
	if g.Unavailable {
		return
	}
	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		b.log.Error().Str("guild", g.ID).Err(err).Msg("некорректный id гильдии")
		return
	}
	b.log.Info().Int64("guild", guildID).Msg("бот удалён из гильдии, чистим настройки")
	if err := b.scheduleUC.Remove(context.Background(), guildID); err != nil {
		b.log.Error().Int64("guild", guildID).Err(err).Msg("не удалось удалить гильдию")
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error().Any("panic", rec).Str("stack", string(debug.Stack())).Msg("паника в обработчике команды")
			b.respondError(i, "Произошла внутренняя ошибка. Попробуйте позже.")
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, i)
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		b.respondError(i, "Для этой команды нужны права администратора.")
		return
	}
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		b.respondError(i, "Не удалось определить сервер.")
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "initialize":
		b.handleInitialize(s, i, guildID, data)
	case "edit-configuration":
		// Изменение настроек намеренно не реализовано:
		// пересоздайте конфигурацию через /initialize.
		b.respondError(i, "Изменение настроек пока не поддерживается. Используйте /initialize.")
	case "remove-server":
		b.handleRemove(i, guildID)
	case "send-daily":
		b.handleSendNow(i, guildID)
	default:
		b.respondError(i, "Неизвестная команда.")
	}
}

func (b *Bot) handleInitialize(s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64, data discordgo.ApplicationCommandInteractionData) {
	var rawTime, timezone, ampm string
	var channelID int64
	for _, opt := range data.Options {
		switch opt.Name {
		case "time":
			rawTime = opt.StringValue()
		case "timezone":
			timezone = opt.StringValue()
		case "ampm":
			ampm = opt.StringValue()
		case "channel":
			if ch := opt.ChannelValue(s); ch != nil {
				channelID, _ = strconv.ParseInt(ch.ID, 10, 64)
			}
		}
	}
	if channelID == 0 {
		b.respondError(i, "Не удалось определить канал.")
		return
	}

	recipient, err := b.scheduleUC.Register(context.Background(), guildID, channelID, rawTime, ampm, timezone)
	switch {
	case errors.Is(err, schedule.ErrInvalidTime):
		b.respondError(i, fmt.Sprintf("Время должно быть в формате HH:MM, а не %q. AM/PM выбирайте в отдельной опции.", rawTime))
		return
	case errors.Is(err, schedule.ErrInvalidTimezone):
		b.respondError(i, fmt.Sprintf("Неизвестный часовой пояс %q. Выберите вариант из подсказки.", timezone))
		return
	case err != nil:
		b.log.Error().Int64("guild", guildID).Err(err).Msg("не удалось зарегистрировать гильдию")
		b.respondError(i, "Не удалось сохранить настройки. Попробуйте позже.")
		return
	}

	b.respond(i, &discordgo.MessageEmbed{
		Title: "Сервер настроен!",
		Description: fmt.Sprintf("Динозавр дня будет приходить в <#%d>.\n\n**Время:** %02d:%02d\n**Часовой пояс:** %s",
			channelID, recipient.Time.Hour, recipient.Time.Minute, recipient.Timezone),
		Color: colorGreen,
	})
}

func (b *Bot) handleRemove(i *discordgo.InteractionCreate, guildID int64) {
	if err := b.scheduleUC.Remove(context.Background(), guildID); err != nil {
		b.log.Error().Int64("guild", guildID).Err(err).Msg("не удалось удалить гильдию")
		b.respondError(i, "Не удалось удалить настройки. Попробуйте позже.")
		return
	}
	b.respond(i, &discordgo.MessageEmbed{
		Title:       "Рассылка отключена",
		Description: "Настройки сервера удалены. Вернуть рассылку можно командой /initialize.",
		Color:       colorGreen,
	})
}

func (b *Bot) handleSendNow(i *discordgo.InteractionCreate, guildID int64) {
	err := b.deliveryUC.SendNow(guildID)
	switch {
	case errors.Is(err, delivery.ErrNotConfigured):
		b.respondError(i, "Сервер ещё не настроен. Выполните /initialize.")
	case errors.Is(err, delivery.ErrNoContent):
		b.respondError(i, "Динозавр дня ещё не готов. Попробуйте чуть позже.")
	case err != nil:
		b.log.Error().Int64("guild", guildID).Err(err).Msg("не удалось отправить по запросу")
		b.respondError(i, "Не удалось отправить сообщение. Проверьте права бота в канале.")
	default:
		b.respond(i, &discordgo.MessageEmbed{
			Title:       "Отправлено!",
			Description: "Динозавр дня уже в канале.",
			Color:       colorGreen,
		})
	}
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	var current string
	for _, opt := range data.Options {
		if opt.Name == "timezone" && opt.Focused {
			current = opt.StringValue()
		}
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxAutocompleteChoices)
	for _, tz := range timezoneNames {
		if current != "" && !strings.HasPrefix(strings.ToLower(tz), strings.ToLower(current)) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: tz, Value: tz})
		if len(choices) == maxAutocompleteChoices {
			break
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("не удалось ответить на автодополнение")
	}
}

func (b *Bot) respond(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("не удалось ответить на команду")
	}
}

func (b *Bot) respondError(i *discordgo.InteractionCreate, text string) {
	b.respond(i, &discordgo.MessageEmbed{
		Title:       "Ошибка",
		Description: text,
		Color:       colorRed,
	})
}
