// Client en ligne de commande de la boutique Velours. Exerce le SDK
// storefront : panier et wishlist en double mode (invité tant qu'aucune
// session n'est ouverte), enrôlement MFA complet.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"velours_back_end/internal/models"
	"velours_back_end/internal/storefront"
)

const sessionKey = "velours_session"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("VELOURS_API")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("❌ Répertoire utilisateur introuvable: %v", err)
	}
	storage, err := storefront.NewFileStorage(filepath.Join(home, ".velours"))
	if err != nil {
		log.Fatalf("❌ Stockage local indisponible: %v", err)
	}

	token := func() string {
		data, ok := storage.Get(sessionKey)
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.Trim(string(data), `"`))
	}
	loggedIn := func() bool { return token() != "" }

	client := storefront.NewClient(baseURL, token)
	cart := storefront.NewCartStore(client, storage, loggedIn)
	wishlist := storefront.NewWishlistStore(client, storage, loggedIn)

	args := os.Args[2:]
	switch os.Args[1] {
	case "login":
		runLogin(client, storage, args)
	case "logout":
		storage.Delete(sessionKey)
		fmt.Println("👋 Session fermée")
	case "cart":
		runCart(cart, args)
	case "wishlist":
		runWishlist(wishlist, args)
	case "mfa":
		runMFA(client, args)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Usage:
  velours login <email> <mot de passe>
  velours logout
  velours cart list|fetch|clear
  velours cart add <product_id> <quantité> [coloris] [bracelet] [modificateur]
  velours cart qty <line_id> <quantité>
  velours cart remove <line_id>
  velours wishlist list|toggle <product_id>
  velours mfa enable|verify <code>|cancel|disable|codes|regenerate`)
}

func runLogin(client *storefront.Client, storage storefront.Storage, args []string) {
	if len(args) < 2 {
		usage()
		return
	}
	result, err := client.Login(args[0], args[1])
	if err != nil {
		log.Fatalf("❌ Connexion refusée: %v", err)
	}

	sessionToken := result.Token
	if result.MFARequired {
		fmt.Print("🔐 Code de double authentification : ")
		code := readLine()
		sessionToken, err = client.SolveMFAChallenge(result.ChallengeToken, code, "")
		if err != nil {
			log.Fatalf("❌ Code refusé: %v", err)
		}
	}

	if err := storage.Set(sessionKey, []byte(sessionToken)); err != nil {
		log.Fatalf("❌ Impossible d'enregistrer la session: %v", err)
	}
	fmt.Println("✅ Connecté")
}

func runCart(cart *storefront.CartStore, args []string) {
	if len(args) == 0 {
		usage()
		return
	}
	switch args[0] {
	case "list":
		printCart(cart)
	case "fetch":
		if !cart.Fetch() {
			log.Fatalf("❌ %s", cart.Err())
		}
		printCart(cart)
	case "add":
		if len(args) < 3 {
			usage()
			return
		}
		qty, _ := strconv.Atoi(args[2])
		var color *models.VariantColor
		var strap *models.VariantStrap
		if len(args) > 3 && args[3] != "" {
			color = &models.VariantColor{Name: args[3]}
		}
		if len(args) > 4 && args[4] != "" {
			strap = &models.VariantStrap{Material: args[4]}
			if len(args) > 5 {
				strap.PriceModifier, _ = strconv.ParseFloat(args[5], 64)
			}
		}
		// en mode invité le prix vient du catalogue affiché, ici zéro faute
		// de consultation préalable du produit
		if !cart.Add(models.ProductSnapshot{ProductID: args[1]}, qty, color, strap) {
			log.Fatalf("❌ %s", cart.Err())
		}
		printCart(cart)
	case "qty":
		if len(args) < 3 {
			usage()
			return
		}
		qty, _ := strconv.Atoi(args[2])
		if !cart.UpdateQuantity(args[1], qty) {
			log.Fatalf("❌ %s", cart.Err())
		}
		printCart(cart)
	case "remove":
		if len(args) < 2 {
			usage()
			return
		}
		if !cart.Remove(args[1]) {
			log.Fatalf("❌ %s", cart.Err())
		}
		printCart(cart)
	case "clear":
		cart.Clear()
		fmt.Println("🧹 Panier vidé")
	default:
		usage()
	}
}

func printCart(cart *storefront.CartStore) {
	items := cart.Items()
	if len(items) == 0 {
		fmt.Println("🛒 Panier vide")
		return
	}
	for _, line := range items {
		variant := ""
		if line.Color != nil {
			variant += " " + line.Color.Name
		}
		if line.Strap != nil {
			variant += " / " + line.Strap.Material
		}
		fmt.Printf("  %s  %s%s  x%d  %.2f €\n", line.LineID, line.Product.Name, variant, line.Quantity, line.UnitPrice)
	}
	fmt.Printf("🛒 %d article(s), sous-total %.2f €\n", cart.Count(), cart.Subtotal())
}

func runWishlist(wishlist *storefront.WishlistStore, args []string) {
	if len(args) == 0 {
		usage()
		return
	}
	switch args[0] {
	case "list":
		wishlist.Fetch()
		for _, item := range wishlist.Items() {
			fmt.Printf("  ⭐ %s  %s\n", item.ProductID, item.Name)
		}
	case "toggle":
		if len(args) < 2 {
			usage()
			return
		}
		if !wishlist.Toggle(models.ProductSnapshot{ProductID: args[1]}) {
			log.Fatalf("❌ %s", wishlist.Err())
		}
		if wishlist.IsInWishlist(args[1]) {
			fmt.Println("⭐ Ajouté à la wishlist")
		} else {
			fmt.Println("💔 Retiré de la wishlist")
		}
	default:
		usage()
	}
}

func runMFA(client *storefront.Client, args []string) {
	profile, err := client.Me()
	if err != nil {
		log.Fatalf("❌ Connectez-vous d'abord: %v", err)
	}
	flow := storefront.NewMFAFlow(client, profile.MFAEnabled)

	if len(args) == 0 {
		usage()
		return
	}
	switch args[0] {
	case "enable":
		if !flow.InitiateSetup() {
			log.Fatalf("❌ %s", flow.Err())
		}
		payload, _ := flow.SetupPayload()
		fmt.Println("🔐 Secret :", payload.Secret)
		fmt.Println("📱 QR     :", payload.QRCode)
		fmt.Println("🗝️ Codes de secours (copiez-les, ils ne seront plus affichés) :")
		for _, code := range payload.BackupCodes {
			fmt.Println("   ", code)
		}
		fmt.Print("Code TOTP pour confirmer : ")
		if !flow.VerifySetup(readLine()) {
			log.Fatalf("❌ %s", flow.Err())
		}
		fmt.Println("✅ Double authentification activée")
	case "verify":
		if len(args) < 2 {
			usage()
			return
		}
		if err := client.VerifyMFA(args[1]); err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Println("✅ Double authentification activée")
	case "cancel":
		flow.CancelSetup()
		if err := client.CancelMFA(); err != nil {
			log.Printf("⚠️ Annulation côté serveur: %v", err)
		}
		fmt.Println("↩️ Enrôlement annulé")
	case "disable":
		fmt.Print("Mot de passe : ")
		if !flow.Disable(readLine()) {
			log.Fatalf("❌ %s", flow.Err())
		}
		fmt.Println("🚫 Double authentification désactivée")
	case "codes":
		fmt.Print("Mot de passe : ")
		status, ok := flow.ViewBackupCodes(readLine())
		if !ok {
			log.Fatalf("❌ %s", flow.Err())
		}
		fmt.Printf("🗝️ %d code(s) de secours restant(s) sur %d\n", status.Remaining, len(status.Codes))
	case "regenerate":
		fmt.Print("Mot de passe : ")
		codes, ok := flow.RegenerateBackupCodes(readLine())
		if !ok {
			log.Fatalf("❌ %s", flow.Err())
		}
		fmt.Println("♻️ Nouveaux codes de secours (les anciens sont invalidés) :")
		for _, code := range codes {
			fmt.Println("   ", code)
		}
	default:
		usage()
	}
}

func readLine() string {
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
