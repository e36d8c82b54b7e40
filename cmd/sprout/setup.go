package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sproutlearn/sprout/internal/adapter"
	"github.com/sproutlearn/sprout/internal/api"
)

// runSetupFlow handles the initial setup when not configured: server
// URL, avatar choice and device registration.
func runSetupFlow(cfg *adapter.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println(titleStyle.Render("Welcome to Sprout!"))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var client *api.Client
	for {
		fmt.Print("Enter the learning server URL (e.g., http://192.168.1.100:8000): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL := strings.TrimRight(strings.TrimSpace(input), "/")
		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		client = api.NewClient(serverURL, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = client.Ping(ctx)
		cancel()
		if err != nil {
			fmt.Printf("✗ Could not reach the server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}

		cfg.Server.URL = serverURL
		break
	}
	fmt.Println(okStyle.Render("✓ Server reachable."))
	fmt.Println()

	// Pick an avatar character.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	avatars, err := client.GetAvatars(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to fetch avatars: %w", err)
	}
	if len(avatars) == 0 {
		return fmt.Errorf("the server offers no avatars; seed it first (sproutd -seed)")
	}

	fmt.Println("Choose your adventure buddy:")
	for i, a := range avatars {
		fmt.Printf("  %d) %s - %s\n", i+1, a.Name, a.Description)
	}
	var avatarID int
	for {
		fmt.Printf("Your choice (1-%d): ", len(avatars))
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if n, err := strconv.Atoi(strings.TrimSpace(input)); err == nil && n >= 1 && n <= len(avatars) {
			avatarID = avatars[n-1].ID
			break
		}
	}

	// Register this device with the server.
	deviceID := adapter.NewDeviceID()
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	_, err = client.CreateProfile(ctx, deviceID, avatarID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	cfg.Device.ID = deviceID
	cfg.Device.AvatarID = avatarID

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(okStyle.Render("✓ Configuration saved!"))
	fmt.Println()
	fmt.Println("Run sprout again to start playing. Try: sprout subjects")
	return nil
}
