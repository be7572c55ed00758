package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// DiscordService is a thin Discord front-end over the chat core. Each
// user+channel pair gets its own store-backed session, so the same history
// rules apply as on the web boundary.
type DiscordService struct {
	session       *discordgo.Session
	chat          *ChatService
	commandPrefix string
	enabled       bool
	startTime     time.Time
}

// NewDiscordService creates the Discord front-end. An empty token leaves the
// service disabled; the rest of the application runs without it.
func NewDiscordService(chat *ChatService, token, commandPrefix string) *DiscordService {
	if commandPrefix == "" {
		commandPrefix = "!chat "
	}

	service := &DiscordService{
		chat:          chat,
		commandPrefix: commandPrefix,
		startTime:     time.Now(),
	}

	if token == "" {
		log.Info("Discord bot disabled: no bot token configured")
		return service
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Errorf("Error creating Discord session: %v", err)
		return service
	}

	service.session = session

	session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		log.Infof("Discord bot online as %s, connected to %d servers", event.User.Username, len(event.Guilds))
	})
	session.AddHandler(service.messageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	service.enabled = true
	log.Infof("Discord service initialized with prefix: %s", commandPrefix)

	return service
}

// Start opens the websocket connection.
func (d *DiscordService) Start() error {
	if !d.enabled {
		return fmt.Errorf("discord service not enabled (missing bot token)")
	}
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}
	log.Infof("Discord bot started, use '%s<mensaje>' in a channel", d.commandPrefix)
	return nil
}

// Stop closes the Discord connection.
func (d *DiscordService) Stop() error {
	if d.session != nil {
		return d.session.Close()
	}
	return nil
}

// messageCreate handles incoming Discord messages
func (d *DiscordService) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, d.commandPrefix) {
		return
	}

	message := strings.TrimSpace(m.Content[len(d.commandPrefix):])
	if message == "" {
		d.sendMessage(s, m.ChannelID, fmt.Sprintf("Escribe un mensaje después de `%s`", strings.TrimSpace(d.commandPrefix)))
		return
	}

	s.ChannelTyping(m.ChannelID)

	// One session per user per channel, kept in the same store as web sessions.
	sessionID := fmt.Sprintf("discord_%s_%s", m.Author.ID, m.ChannelID)

	result, err := d.chat.HandleChat(context.Background(), sessionID, message, true)
	if err != nil {
		log.Errorf("Discord chat failed for %s: %v", sessionID, err)
		if errors.Is(err, ErrModelTimeout) {
			d.sendMessage(s, m.ChannelID, "El asistente tardó demasiado en responder. Intenta nuevamente.")
		} else {
			d.sendMessage(s, m.ChannelID, "El asistente no está disponible en este momento. Intenta nuevamente más tarde.")
		}
		return
	}

	d.sendMessage(s, m.ChannelID, result.Reply)
	log.Infof("Discord chat: %s (%s) in %s", m.Author.Username, m.Author.ID, m.ChannelID)
}

// sendMessage sends a message to Discord, splitting to respect the 2000
// character limit.
func (d *DiscordService) sendMessage(s *discordgo.Session, channelID, message string) {
	if len(message) <= 2000 {
		if _, err := s.ChannelMessageSend(channelID, message); err != nil {
			log.Errorf("Error sending Discord message: %v", err)
		}
		return
	}

	chunks := splitMessage(message, 1900)
	for i, chunk := range chunks {
		if i > 0 {
			chunk = "...\n" + chunk
		}
		if _, err := s.ChannelMessageSend(channelID, chunk); err != nil {
			log.Errorf("Error sending Discord message chunk: %v", err)
		}
		// Small delay between chunks to avoid rate limiting.
		time.Sleep(200 * time.Millisecond)
	}
}

// splitMessage splits a message into chunks respecting word boundaries.
func splitMessage(message string, maxLength int) []string {
	if len(message) <= maxLength {
		return []string{message}
	}

	var chunks []string
	for len(message) > maxLength {
		splitIndex := maxLength
		if spaceIndex := strings.LastIndex(message[:maxLength], " "); spaceIndex > maxLength/2 {
			splitIndex = spaceIndex
		}
		chunks = append(chunks, message[:splitIndex])
		message = strings.TrimPrefix(message[splitIndex:], " ")
	}
	if len(message) > 0 {
		chunks = append(chunks, message)
	}
	return chunks
}

// IsEnabled returns whether the Discord service is enabled
func (d *DiscordService) IsEnabled() bool {
	return d.enabled
}

// GetStatus returns the current status of the Discord service
func (d *DiscordService) GetStatus() map[string]interface{} {
	status := map[string]interface{}{
		"enabled":        d.enabled,
		"command_prefix": d.commandPrefix,
		"uptime":         time.Since(d.startTime).String(),
	}

	if d.enabled && d.session != nil && d.session.State.User != nil {
		status["status"] = "connected"
		status["user"] = d.session.State.User.Username
	} else if d.enabled {
		status["status"] = "initialized_not_started"
	} else {
		status["status"] = "disabled"
	}

	return status
}
