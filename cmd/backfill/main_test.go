package main

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/calliq/insights-backend/internal/agent"
	"github.com/calliq/insights-backend/internal/organization"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/calliq/insights-backend/internal/transcript"
)

func setupStores(t *testing.T) (*organization.Store, *agent.Store, *transcript.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	orgs := organization.NewStore(db)
	agents := agent.NewStore(db)
	transcripts := transcript.NewStore(db)
	for name, migrate := range map[string]func() error{
		"orgs": orgs.Migrate, "agents": agents.Migrate, "transcripts": transcripts.Migrate,
	} {
		if err := migrate(); err != nil {
			t.Fatalf("migrate %s: %v", name, err)
		}
	}
	return orgs, agents, transcripts
}

func TestBackfillAgentLinks(t *testing.T) {
	ctx := context.Background()
	orgs, agents, transcripts := setupStores(t)

	org := &organization.Organization{Name: "Acme Support", Status: organization.StatusActive}
	if err := orgs.Create(ctx, org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	a := &agent.Agent{OrganizationID: org.ID, ExternalID: "77", FirstName: "Rena", LastName: "Ortiz"}
	if err := agents.Create(ctx, a); err != nil {
		t.Fatalf("create agent: %v", err)
	}

	named := &transcript.Transcript{
		OrganizationID: org.ID,
		Source:         shared.SourceWebhook,
		RawTranscript:  "hi",
		CallDetails:    transcript.CallDetails{Agent: "Rena Ortiz"},
	}
	unnamed := &transcript.Transcript{
		OrganizationID: org.ID,
		Source:         shared.SourceWeb,
		RawTranscript:  "hi",
	}
	unknown := &transcript.Transcript{
		OrganizationID: org.ID,
		Source:         shared.SourceWebhook,
		RawTranscript:  "hi",
		CallDetails:    transcript.CallDetails{Agent: "Nobody Here"},
	}
	for _, tr := range []*transcript.Transcript{named, unnamed, unknown} {
		if err := transcripts.Create(ctx, tr); err != nil {
			t.Fatalf("create transcript: %v", err)
		}
	}

	if err := backfillAgentLinks(ctx, orgs, agents, transcripts); err != nil {
		t.Fatalf("backfillAgentLinks: %v", err)
	}

	got, err := transcripts.GetByID(ctx, org.ID, named.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.AgentID == nil || *got.AgentID != a.ID {
		t.Errorf("named transcript AgentID = %v, want %s", got.AgentID, a.ID)
	}

	for _, tr := range []*transcript.Transcript{unnamed, unknown} {
		got, err := transcripts.GetByID(ctx, org.ID, tr.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if got.AgentID != nil {
			t.Errorf("transcript %s AgentID = %v, want unlinked", tr.ID, got.AgentID)
		}
	}
}

func TestBackfillAgentLinksIdempotent(t *testing.T) {
	ctx := context.Background()
	orgs, agents, transcripts := setupStores(t)

	org := &organization.Organization{Name: "Acme Support", Status: organization.StatusActive}
	if err := orgs.Create(ctx, org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	a := &agent.Agent{OrganizationID: org.ID, ExternalID: "77", FirstName: "Rena", LastName: "Ortiz"}
	if err := agents.Create(ctx, a); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	tr := &transcript.Transcript{
		OrganizationID: org.ID,
		Source:         shared.SourceWebhook,
		RawTranscript:  "hi",
		CallDetails:    transcript.CallDetails{Agent: "Rena Ortiz"},
	}
	if err := transcripts.Create(ctx, tr); err != nil {
		t.Fatalf("create transcript: %v", err)
	}

	for run := 0; run < 2; run++ {
		if err := backfillAgentLinks(ctx, orgs, agents, transcripts); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}

	got, err := transcripts.GetByID(ctx, org.ID, tr.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.AgentID == nil || *got.AgentID != a.ID {
		t.Errorf("AgentID = %v, want %s", got.AgentID, a.ID)
	}
}
