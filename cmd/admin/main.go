package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"roomchat/backend/internal/auth"
	"roomchat/backend/internal/chathub"
	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  add-user <username> [pincode]      create a user and print its id
  ban <user_id> [hours] [reason]     suspend a user (0 or no hours = until unbanned)
  unban <user_id>                    lift a suspension
  start-chat <user_id> <user_id>     get or create the room of two users
  token <user_id>                    mint an access token for a user`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()

	command, args := os.Args[1], os.Args[2:]

	// token needs no backends.
	if command == "token" {
		requireArgs(args, 1, "admin token <user_id>")
		tok, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL).Issue(args[0])
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	s := connect(ctx, cfg)

	switch command {
	case "add-user":
		requireArgs(args, 1, "admin add-user <username> [pincode]")
		user := &models.User{Username: args[0]}
		if len(args) > 1 {
			user.CurrentPincode = args[1]
		}
		if err := s.SaveUser(ctx, user); err != nil {
			log.Fatalf("Error creating user: %v", err)
		}
		fmt.Printf("User %s created with id %s\n", user.Username, user.ID)

	case "ban":
		requireArgs(args, 1, "admin ban <user_id> [hours] [reason]")
		var hours int
		if len(args) > 1 {
			hours, err = strconv.Atoi(args[1])
			if err != nil || hours < 0 {
				fmt.Println("Invalid duration. Please provide a non-negative integer.")
				os.Exit(1)
			}
		}
		reason := strings.Join(args[min(2, len(args)):], " ")
		if err := s.BanUser(ctx, args[0], reason, time.Duration(hours)*time.Hour); err != nil {
			log.Fatalf("Error banning user: %v", err)
		}
		fmt.Printf("User %s has been banned.\n", args[0])

	case "unban":
		requireArgs(args, 1, "admin unban <user_id>")
		if err := s.UnbanUser(ctx, args[0]); err != nil {
			log.Fatalf("Error unbanning user: %v", err)
		}
		fmt.Printf("User %s has been unbanned.\n", args[0])

	case "start-chat":
		requireArgs(args, 2, "admin start-chat <user_id> <user_id>")
		room, err := chathub.NewManagerService(s).StartChat(ctx, args[0], args[1])
		if err != nil {
			log.Fatalf("Error starting chat: %v", err)
		}
		fmt.Printf("Room %s (%s, %s)\n", room.ID, room.User1ID, room.User2ID)

	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func connect(ctx context.Context, cfg *config.Config) *storage.Service {
	db, err := storage.OpenPostgres(cfg.DatabaseURL, cfg.DBDriver)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	rdb, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	return storage.NewStorageService(db, rdb)
}

func requireArgs(args []string, n int, line string) {
	if len(args) < n {
		fmt.Println("Usage: " + line)
		os.Exit(1)
	}
}
