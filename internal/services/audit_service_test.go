package services

import (
	"testing"

	"spendlens/internal/models"
	"spendlens/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log("alice", "CREATE_EXPENSE", "expense", "exp-1", "10.0.0.1", map[string]interface{}{"amount": "12.50"})
	svc.Log("alice", "DELETE_EXPENSE", "expense", "exp-1", "10.0.0.1", nil)

	var entries []models.AuditLog
	testutil.AssertNoError(t, db.Order("id").Find(&entries).Error)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "CREATE_EXPENSE" || entries[0].ResourceID != "exp-1" || entries[0].IPAddress != "10.0.0.1" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[0].Changes != `{"amount":"12.50"}` {
		t.Errorf("Changes = %q", entries[0].Changes)
	}
	if entries[1].Changes != "" {
		t.Errorf("nil changes should be stored empty, got %q", entries[1].Changes)
	}
}

func TestLogAuditService_DoesNotPanic(t *testing.T) {
	NewLogAuditService().Log("alice", "UPDATE_EXPENSE", "expense", "exp-1", "", map[string]interface{}{"bad": make(chan int)})
}
