package config

// Default returns the baseline configuration applied before any file values.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  "~/.local/share/iris/logs",
			DataDir: "~/.local/share/iris/data",
			APIBind: "127.0.0.1:7474",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		Workflow: Workflow{
			MaxConcurrentJobs:  4,
			JobMaxAgeSeconds:   1800,
			SweepIntervalSecs:  60,
			StageTimeoutSecs:   120,
			ProviderMaxRetries: 2,
		},
		Cache: Cache{
			Enabled:    true,
			TTLSeconds: 3600,
			MaxEntries: 100,
		},
		Resources: Resources{
			MemoryHighWaterPct:   85,
			AdmissionRetrySecs:   2,
			AdmissionMaxWaitSecs: 30,
		},
		Providers: Providers{
			OpenAI: OpenAI{
				TranscriptionModel: "whisper-1",
				VisionModel:        "gpt-4o-mini",
				SentimentModel:     "gpt-4o-mini",
			},
			Gemini: Gemini{
				VisionModel: "gemini-2.0-flash",
			},
		},
		Features: Features{
			Video: VideoFeatures{
				Transcription: true,
				SceneAnalysis: true,
				Description:   true,
				Thumbnails:    true,
				Tags:          true,
			},
			Audio: AudioFeatures{
				Transcription: true,
				Speakers:      true,
				Sentiment:     true,
				Tags:          true,
			},
			Image: ImageFeatures{
				ObjectDetection: true,
				OCR:             true,
				Description:     true,
				Thumbnails:      true,
				Quality:         true,
				Tags:            true,
			},
		},
		Detection: Detection{
			VideoExtensions: []string{".mp4", ".mkv", ".webm", ".avi", ".mov"},
			AudioExtensions: []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"},
			ImageExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		},
		Thumbnails: Thumbnails{
			Count: 3,
			Width: 320,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
	}
}
