package handler

import (
	"groupchat/internal/app/chat"
	"groupchat/internal/configs"
)

type AppDeps struct {
	Registry *chat.Registry
	Config   *configs.AppConfig
}
