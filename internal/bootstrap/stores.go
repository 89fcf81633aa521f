package bootstrap

import (
	"github.com/calliq/insights-backend/internal/agent"
	"github.com/calliq/insights-backend/internal/apikey"
	"github.com/calliq/insights-backend/internal/calltype"
	"github.com/calliq/insights-backend/internal/organization"
	"github.com/calliq/insights-backend/internal/transcript"
	"github.com/calliq/insights-backend/internal/user"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideOrganizationStore(db *gorm.DB) *organization.Store {
	return organization.NewStore(db)
}

func ProvideUserStore(db *gorm.DB) *user.Store {
	return user.NewStore(db)
}

func ProvideAgentStore(db *gorm.DB) *agent.Store {
	return agent.NewStore(db)
}

func ProvideTranscriptStore(db *gorm.DB) *transcript.Store {
	return transcript.NewStore(db)
}

func ProvideCallTypeStore(db *gorm.DB) *calltype.Store {
	return calltype.NewStore(db)
}

func ProvideAPIKeyStore(db *gorm.DB) *apikey.Store {
	return apikey.NewStore(db)
}

func RunMigrations(
	orgStore *organization.Store,
	userStore *user.Store,
	agentStore *agent.Store,
	transcriptStore *transcript.Store,
	callTypeStore *calltype.Store,
	apiKeyStore *apikey.Store,
) error {
	migrations := []func() error{
		orgStore.Migrate,
		userStore.Migrate,
		agentStore.Migrate,
		transcriptStore.Migrate,
		callTypeStore.Migrate,
		apiKeyStore.Migrate,
	}
	for _, migrate := range migrations {
		if err := migrate(); err != nil {
			return err
		}
	}
	return nil
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideOrganizationStore,
		ProvideUserStore,
		ProvideAgentStore,
		ProvideTranscriptStore,
		ProvideCallTypeStore,
		ProvideAPIKeyStore,
	),
	fx.Invoke(RunMigrations),
)
