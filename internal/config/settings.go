package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/joho/godotenv"
)

// Settings holds the values that administrators may change while the
// service is running. The zero value is the unconfigured state.
type Settings struct {
	mu          sync.RWMutex
	slackToken  string
	contactsCSV string
	envFile     string
}

// NewSettings seeds runtime settings from the loaded configuration.
func NewSettings(cfg Config) *Settings {
	return &Settings{
		slackToken:  cfg.SlackBotToken,
		contactsCSV: cfg.ContactsCSV,
		envFile:     cfg.EnvFile,
	}
}

func (s *Settings) SlackToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slackToken
}

func (s *Settings) ContactsCSV() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contactsCSV
}

// SetSlackToken replaces the chat credential and persists it to the env file.
func (s *Settings) SetSlackToken(token string) error {
	s.mu.Lock()
	s.slackToken = token
	s.mu.Unlock()
	return s.persist("SLACK_BOT_TOKEN", token)
}

// SetContactsCSV replaces the directory source path and persists it to the env file.
func (s *Settings) SetContactsCSV(path string) error {
	s.mu.Lock()
	s.contactsCSV = path
	s.mu.Unlock()
	return s.persist("CONTACTS_CSV", path)
}

func (s *Settings) persist(key, value string) error {
	s.mu.RLock()
	path := s.envFile
	s.mu.RUnlock()
	if path == "" {
		return nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read env file: %w", err)
		}
		env = map[string]string{}
	}
	env[key] = value
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}
