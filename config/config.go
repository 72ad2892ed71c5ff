package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv 读取 .env（可选），已存在的环境变量优先
func LoadEnv() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		log.Printf("load %s: %v", path, err)
	}
}
