package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rampartlabs/rampart/internal/application/dto"
	appservice "github.com/rampartlabs/rampart/internal/application/service"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/infrastructure/persistence/postgres"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// tenantCmd groups the tenant provisioning and lifecycle commands. They talk
// to postgres directly and bypass the HTTP admin plane.
// tenantCmd 聚合租户开通与生命周期命令。它们直接操作 postgres，
// 不经过 HTTP 管理接口。
var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Provision and manage tenants",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a tenant and print its credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required")
		}

		req := &dto.CreateTenantRequest{Name: name}
		if cmd.Flags().Changed("daily") || cmd.Flags().Changed("monthly") {
			daily, _ := cmd.Flags().GetInt64("daily")
			monthly, _ := cmd.Flags().GetInt64("monthly")
			req.QuotaLimits = &models.QuotaLimits{DailyLimit: daily, MonthlyLimit: monthly, Enforced: true}
		}
		if cmd.Flags().Changed("block-high-risk") || cmd.Flags().Changed("auto-redact") {
			block, _ := cmd.Flags().GetBool("block-high-risk")
			redact, _ := cmd.Flags().GetBool("auto-redact")
			req.RiskPolicy = &models.RiskPolicy{BlockHighRisk: block, AutoRedact: redact}
		}

		svc, closeDB, err := tenantService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		resp, err := svc.Provision(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Printf("Tenant ID:  %s\n", resp.TenantID)
		fmt.Printf("Name:       %s\n", resp.Name)
		fmt.Printf("API Key:    %s\n", resp.APIKey)
		fmt.Printf("API Secret: %s\n", resp.APISecret)
		fmt.Printf("Status:     %s\n", resp.Status)
		fmt.Printf("Quota:      %d/day, %d/month\n", resp.QuotaLimits.DailyLimit, resp.QuotaLimits.MonthlyLimit)
		fmt.Println()
		fmt.Println("The API secret is shown only once. Store it now.")
		return nil
	},
}

var tenantGetCmd = &cobra.Command{
	Use:   "get <tenant-id>",
	Short: "Show a tenant's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := tenantService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		resp, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printTenant(resp)
		return nil
	},
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants in creation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		svc, closeDB, err := tenantService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		resp, err := svc.List(cmd.Context(), &dto.ListTenantsRequest{Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		for _, t := range resp.Tenants {
			fmt.Printf("%s  %-10s  %s  (created %s)\n",
				t.TenantID, t.Status, t.Name, t.CreatedAt.Format("2006-01-02"))
		}
		fmt.Printf("%d tenants\n", resp.Count)
		return nil
	},
}

var tenantUpdateCmd = &cobra.Command{
	Use:   "update <tenant-id>",
	Short: "Change a tenant's status, quota limits or risk policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := tenantService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		// Quota and policy persist as whole values, so unchanged fields are
		// carried over from the current configuration.
		current, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		req := &dto.UpdateTenantRequest{}
		if cmd.Flags().Changed("status") {
			status, _ := cmd.Flags().GetString("status")
			req.Status = &status
		}
		if cmd.Flags().Changed("daily") || cmd.Flags().Changed("monthly") || cmd.Flags().Changed("enforced") {
			limits := current.QuotaLimits
			if cmd.Flags().Changed("daily") {
				limits.DailyLimit, _ = cmd.Flags().GetInt64("daily")
			}
			if cmd.Flags().Changed("monthly") {
				limits.MonthlyLimit, _ = cmd.Flags().GetInt64("monthly")
			}
			if cmd.Flags().Changed("enforced") {
				limits.Enforced, _ = cmd.Flags().GetBool("enforced")
			}
			req.QuotaLimits = &limits
		}
		if cmd.Flags().Changed("block-high-risk") || cmd.Flags().Changed("auto-redact") {
			policy := current.RiskPolicy
			if cmd.Flags().Changed("block-high-risk") {
				policy.BlockHighRisk, _ = cmd.Flags().GetBool("block-high-risk")
			}
			if cmd.Flags().Changed("auto-redact") {
				policy.AutoRedact, _ = cmd.Flags().GetBool("auto-redact")
			}
			req.RiskPolicy = &policy
		}

		resp, err := svc.Update(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		printTenant(resp)
		return nil
	},
}

var tenantSuspendCmd = &cobra.Command{
	Use:   "suspend <tenant-id>",
	Short: "Suspend a tenant; its next request is rejected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := tenantService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		status := string(constants.TenantStatusSuspended)
		resp, err := svc.Update(cmd.Context(), args[0], &dto.UpdateTenantRequest{Status: &status})
		if err != nil {
			return err
		}
		fmt.Printf("Tenant %s is now %s\n", resp.TenantID, resp.Status)
		return nil
	},
}

// tenantService builds the tenant application service over a direct postgres
// connection. The returned closer releases the connection.
func tenantService(cmd *cobra.Command) (appservice.TenantAppService, func(), error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewTenantRepository(db.Gorm(), logger.NewNoopLogger())
	svc := appservice.NewTenantAppService(repo, nil, logger.NewNoopLogger())
	return svc, db.Close, nil
}

func printTenant(t *dto.TenantResponse) {
	fmt.Printf("Tenant ID:  %s\n", t.TenantID)
	fmt.Printf("Name:       %s\n", t.Name)
	fmt.Printf("API Key:    %s\n", t.APIKey)
	fmt.Printf("Status:     %s\n", t.Status)
	fmt.Printf("Quota:      %d/day, %d/month (enforced: %t)\n",
		t.QuotaLimits.DailyLimit, t.QuotaLimits.MonthlyLimit, t.QuotaLimits.Enforced)
	fmt.Printf("Policy:     block_high_risk=%t auto_redact=%t\n",
		t.RiskPolicy.BlockHighRisk, t.RiskPolicy.AutoRedact)
	if t.DeletedAt != nil {
		fmt.Printf("Deleted:    %s\n", t.DeletedAt.Format("2006-01-02 15:04:05"))
	}
}

func init() {
	tenantCreateCmd.Flags().String("name", "", "Tenant display name")
	tenantCreateCmd.Flags().Int64("daily", 0, "Daily analyze request limit")
	tenantCreateCmd.Flags().Int64("monthly", 0, "Monthly analyze request limit")
	tenantCreateCmd.Flags().Bool("block-high-risk", false, "Block high and critical verdicts")
	tenantCreateCmd.Flags().Bool("auto-redact", false, "Redact detected sensitive spans")

	tenantListCmd.Flags().Int("limit", 50, "Page size")
	tenantListCmd.Flags().Int("offset", 0, "Page offset")

	tenantUpdateCmd.Flags().String("status", "", "New status (active, suspended)")
	tenantUpdateCmd.Flags().Int64("daily", 0, "Daily analyze request limit")
	tenantUpdateCmd.Flags().Int64("monthly", 0, "Monthly analyze request limit")
	tenantUpdateCmd.Flags().Bool("enforced", true, "Reject requests over the limit")
	tenantUpdateCmd.Flags().Bool("block-high-risk", false, "Block high and critical verdicts")
	tenantUpdateCmd.Flags().Bool("auto-redact", false, "Redact detected sensitive spans")

	tenantCmd.AddCommand(tenantCreateCmd, tenantGetCmd, tenantListCmd, tenantUpdateCmd, tenantSuspendCmd)
	rootCmd.AddCommand(tenantCmd)
}
