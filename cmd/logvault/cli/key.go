package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/service"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys used to authenticate against the LogVault API.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRotateCmd())
	cmd.AddCommand(newKeyRevokeCmd())
	cmd.AddCommand(newKeyDeleteCmd())

	return cmd
}

// matchKeyByPrefix resolves a display-prefix argument to a stored key.
func matchKeyByPrefix(ctx context.Context, svc *service.APIKeyService, prefix string) (*model.APIKey, error) {
	keys, err := svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	for i := range keys {
		if strings.HasPrefix(keys[i].KeyPrefix, prefix) {
			return &keys[i], nil
		}
	}
	return nil, fmt.Errorf("no API key found with prefix %q", prefix)
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		name        string
		description string
		ttl         time.Duration
		allowIPs    []string
		rate        int
		burst       int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The raw key is shown once and cannot be retrieved again.",
		Example: `  logvault key create --name "CI pipeline"
  logvault key create --name ingester --rate 100 --allow-ip 10.0.0.0/8 --ttl 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(name, description, ttl, allowIPs, rate, burst)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Human-readable name for the key (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description of the key's purpose")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Expiry as a duration from now (0 = never expires)")
	cmd.Flags().StringSliceVar(&allowIPs, "allow-ip", nil, "CIDR network the key may be used from (repeatable)")
	cmd.Flags().IntVar(&rate, "rate", 0, "Requests per second (0 = service default)")
	cmd.Flags().IntVar(&burst, "burst", 0, "Burst ceiling per window (0 = derived from rate)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runKeyCreate(name, description string, ttl time.Duration, allowIPs []string, rate, burst int) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	req := model.CreateAPIKey{
		Name:       name,
		AllowedIPs: model.CIDRList(allowIPs),
	}
	if description != "" {
		req.Description = &description
	}
	if ttl > 0 {
		exp := time.Now().UTC().Add(ttl)
		req.ExpiresAt = &exp
	}
	if rate > 0 {
		req.RateLimitPerSecond = &rate
	}
	if burst > 0 {
		req.RateLimitBurst = &burst
	}

	created, err := service.NewAPIKeyService(st).Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	effRate, effBurst := created.EffectiveLimits()

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:   %s\n", created.PlainKey)
	fmt.Printf("  Name:  %s\n", created.Name)
	fmt.Printf("  Rate:  %d/s (burst %d)\n", effRate, effBurst)
	if created.ExpiresAt != nil {
		fmt.Printf("  Expires: %s\n", created.ExpiresAt.Format(time.RFC3339))
	}
	if len(created.AllowedIPs) > 0 {
		fmt.Printf("  Allowed IPs: %s\n", strings.Join(created.AllowedIPs, ", "))
	}
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		jsonOutput  bool
		expiredOnly bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput, expiredOnly)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&expiredOnly, "expired", false, "Only keys past expiry but still active")

	return cmd
}

func runKeyList(jsonOutput, expiredOnly bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := service.NewAPIKeyService(st)
	ctx := context.Background()

	var keys []model.APIKey
	if expiredOnly {
		keys, err = svc.ListExpired(ctx)
	} else {
		keys, err = svc.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found. Use 'logvault key create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-14s %-24s %-10s %-8s %s\n", "ID", "PREFIX", "NAME", "RATE", "ACTIVE", "EXPIRES")
	for _, k := range keys {
		rate, burst := k.EffectiveLimits()
		active := "yes"
		if !k.IsActive {
			active = "no"
		}
		expires := "-"
		if k.ExpiresAt != nil {
			expires = k.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Printf("%-6d %-14s %-24s %-10s %-8s %s\n",
			k.ID, k.KeyPrefix, k.Name, fmt.Sprintf("%d/%d", rate, burst), active, expires)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <prefix>",
		Short: "Revoke an API key by its prefix",
		Long:  "Deactivate an API key, preventing any further authenticated requests using that key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}

	return cmd
}

func runKeyRevoke(prefix string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := service.NewAPIKeyService(st)
	ctx := context.Background()

	matched, err := matchKeyByPrefix(ctx, svc, prefix)
	if err != nil {
		return err
	}

	if _, err := svc.Revoke(ctx, matched.ID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key with prefix %q\n", matched.KeyPrefix)
	return nil
}

// ---------- key rotate ----------

func newKeyRotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate <prefix>",
		Short: "Rotate an API key's secret by its prefix",
		Long:  "Replace the key's secret in place. The old secret stops working immediately; the new one is shown once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRotate(args[0])
		},
	}

	return cmd
}

func runKeyRotate(prefix string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := service.NewAPIKeyService(st)
	ctx := context.Background()

	matched, err := matchKeyByPrefix(ctx, svc, prefix)
	if err != nil {
		return err
	}

	rotated, err := svc.Rotate(ctx, matched.ID)
	if err != nil {
		return fmt.Errorf("rotate api key: %w", err)
	}

	fmt.Println("API Key rotated:")
	fmt.Println()
	fmt.Printf("  Key:  %s\n", rotated.PlainKey)
	fmt.Printf("  Name: %s\n", rotated.Name)
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key delete ----------

func newKeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <prefix>",
		Short: "Permanently delete an API key by its prefix",
		Long:  "Remove the key record entirely. Prefer 'key revoke' to keep the record for audit.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyDelete(args[0])
		},
	}

	return cmd
}

func runKeyDelete(prefix string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := service.NewAPIKeyService(st)
	ctx := context.Background()

	matched, err := matchKeyByPrefix(ctx, svc, prefix)
	if err != nil {
		return err
	}

	if _, err := svc.Delete(ctx, matched.ID); err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}

	fmt.Printf("Deleted API key with prefix %q\n", matched.KeyPrefix)
	return nil
}
