package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"ytresearch-backend/internal/services"
)

// oauthsetup runs the one-time console consent flow and caches the token
// the server will use for the YouTube Data API.
func main() {
	credentialsPath := flag.String("credentials", "config/credentials.json", "path to OAuth client secrets JSON")
	tokenPath := flag.String("token", "config/token.json", "where to write the cached token")
	flag.Parse()

	provider := services.NewFileCredentialProvider(*credentialsPath, *tokenPath)

	cfg, err := provider.OAuthConfig()
	if err != nil {
		log.Fatalf("Failed to load client secrets: %v", err)
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Println("Open this URL in your browser and authorize the application:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Print("Paste the authorization code here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read authorization code: %v", err)
	}
	code = strings.TrimSpace(code)

	token, err := cfg.Exchange(context.Background(), code)
	if err != nil {
		log.Fatalf("Token exchange failed: %v", err)
	}

	if err := provider.SaveToken(token); err != nil {
		log.Fatalf("Failed to save token: %v", err)
	}

	fmt.Printf("Token saved to %s\n", *tokenPath)
}
