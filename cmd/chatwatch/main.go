// Command chatwatch follows one conversation from the terminal. It polls the
// server the same way the web client does and prints messages as they arrive.
//
//	CHATWATCH_TOKEN=... chatwatch -server http://localhost:3001 -me <userId> -peer <userId>
//
// Lines typed on stdin are sent to the peer.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"medivault-server/internal/client"
	"medivault-server/internal/config"
	"medivault-server/internal/convsync"
	"medivault-server/internal/logger"
	"medivault-server/internal/models"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	server := flag.String("server", "http://localhost:"+cfg.Port, "portal base URL")
	me := flag.String("me", "", "your user id")
	peer := flag.String("peer", "", "the other participant's user id")
	interval := flag.Duration("interval", cfg.Chat.PollInterval, "refresh interval")
	flag.Parse()

	if *interval <= 0 {
		*interval = convsync.DefaultInterval
	}

	token := os.Getenv("CHATWATCH_TOKEN")
	if *me == "" || *peer == "" || token == "" {
		flag.Usage()
		log.Fatal("-me, -peer and CHATWATCH_TOKEN are required")
	}

	logr, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewChatClient(*server, token, nil)
	session := convsync.Open(ctx, api, *me, *peer, *interval, logr)
	defer session.Close()

	go readInput(ctx, session, logr)

	printed := make(map[string]bool)
	printNew := func() {
		for _, m := range session.Messages() {
			if printed[m.ID] {
				continue
			}
			printed[m.ID] = true
			fmt.Println(formatMessage(m, *me))
		}
	}

	ticker := time.NewTicker(*interval / 2)
	defer ticker.Stop()
	printNew()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			printNew()
		}
	}
}

func readInput(ctx context.Context, session *convsync.Session, logr *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if _, err := session.Send(ctx, scanner.Text()); err != nil {
			logr.Warn("message not sent", zap.Error(err))
		}
	}
}

func formatMessage(m models.Message, me string) string {
	who := "them"
	if m.SenderID == me {
		who = "me"
	}
	return fmt.Sprintf("[%s] %-4s %s", m.Timestamp.Local().Format("15:04:05"), who, m.Body)
}
