package migration

import (
	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/internal/config"
	consultdomain "github.com/worktugal/worktugal/internal/consult/domain"
	leaddomain "github.com/worktugal/worktugal/internal/lead/domain"
	partnerdomain "github.com/worktugal/worktugal/internal/partner/domain"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	reviewdomain "github.com/worktugal/worktugal/internal/review/domain"
	subscriptiondomain "github.com/worktugal/worktugal/internal/subscription/domain"
	userdomain "github.com/worktugal/worktugal/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Versioned SQL targets postgres; other dialects (sqlite in
			// local development) take the schema from the models.
			return conn.AutoMigrate(
				&checkupdomain.CheckupRecord{},
				&paymentdomain.OrderRecord{},
				&consultdomain.ConsultBooking{},
				&consultdomain.ConsultSession{},
				&partnerdomain.PartnerSubmission{},
				&userdomain.User{},
				&reviewdomain.PaidReview{},
				&subscriptiondomain.SubscriptionRecord{},
				&leaddomain.Lead{},
				&leaddomain.ContactRequest{},
				&leaddomain.AccountantApplication{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
