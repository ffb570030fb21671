package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Telegram: TelegramConfig{
			ParseMode:   "Markdown",
			PollTimeout: 30,
		},
		Journal: JournalConfig{
			Dir:                "~/.jotbot/journal",
			AttachmentsDir:     "attachments",
			FrontMatter:        true,
			MaxAttachmentBytes: 50 * 1024 * 1024,
		},
	}
}
