package domain

import "errors"

// ErrPageNotFound означает, что статьи нет в источнике контента.
// Состояние восстановимое: предыдущий контент остаётся в силе.
var ErrPageNotFound = errors.New("источник: страница не найдена")

// ErrForbidden означает нехватку прав бота в канале назначения.
var ErrForbidden = errors.New("messenger: недостаточно прав")
