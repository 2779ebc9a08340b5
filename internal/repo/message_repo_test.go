package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
)

func TestCreateMessage_UserTurn(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})

	m, err := CreateMessage(db, "c1", "u1", domain.MessageRoleUser, "salut", nil, nil, nil)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == "" || m.Role != domain.MessageRoleUser || m.Content != "salut" {
		t.Fatalf("unexpected fields: %+v", m)
	}
	if m.Model != nil || m.Tokens != nil {
		t.Fatalf("user turns carry no model/tokens: %+v", m)
	}
}

func TestCreateMessage_AssistantTurnWithUsage(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})

	model := "gpt-4o-mini"
	tokens := 42
	m, err := CreateMessage(db, "c1", "u1", domain.MessageRoleAssistant, "bonjour", &model, &tokens, nil)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	got, err := GetMessage(db, m.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.Model == nil || *got.Model != model {
		t.Fatalf("model not persisted: %+v", got)
	}
	if got.Tokens == nil || *got.Tokens != tokens {
		t.Fatalf("tokens not persisted: %+v", got)
	}
}

func TestCreateMessage_AttachmentManifestRoundTrips(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})

	refs := []domain.FileRef{{Name: "cv.pdf", Type: "application/pdf", Size: 2048}}
	raw, _ := json.Marshal(refs)

	m, err := CreateMessage(db, "c1", "u1", domain.MessageRoleUser, "mon CV", nil, nil, datatypes.JSON(raw))
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	got, err := GetMessage(db, m.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	var back []domain.FileRef
	if err := json.Unmarshal(got.Files, &back); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if len(back) != 1 || back[0].Name != "cv.pdf" || back[0].Size != 2048 {
		t.Fatalf("manifest mangled: %+v", back)
	}
}

func TestListMessages_DeterministicOrder(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})

	// Same CreatedAt on purpose: the ID tiebreaker keeps order stable.
	at := time.Now().UTC()
	for _, id := range []string{"b", "a", "c"} {
		m := &domain.Message{
			ID: id, ConversationID: "c1", UserID: "u1",
			Role: domain.MessageRoleUser, Content: id, CreatedAt: at,
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	out, err := ListMessages(db, "c1", 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(out) != 3 || out[0].ID != "a" || out[1].ID != "b" || out[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", out)
	}

	limited, err := ListMessages(db, "c1", 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("limit not applied: %d %v", len(limited), err)
	}
}

func TestListMessagesPage_And_Count(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})

	for i := 0; i < 5; i++ {
		m := &domain.Message{
			ID: fmt.Sprintf("m%d", i), ConversationID: "c1", UserID: "u1",
			Role: domain.MessageRoleUser, Content: fmt.Sprintf("msg %d", i),
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := CountMessages(db, "c1")
	if err != nil || total != 5 {
		t.Fatalf("count = %d, err = %v", total, err)
	}

	page, err := ListMessagesPage(db, "c1", 2, 2)
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "m2" || page[1].ID != "m3" {
		t.Fatalf("wrong page: %+v", page)
	}
}

func TestCountMessages_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := CountMessages(db, "c1"); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestDeleteMessage_AuthorOnly(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{}, &domain.Message{})

	m, _ := CreateMessage(db, "c1", "u1", domain.MessageRoleUser, "x", nil, nil, nil)

	if err := DeleteMessage(db, m.ID, "c1", "intruder"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("cross-user delete should be not-found, got %v", err)
	}
	if err := DeleteMessage(db, m.ID, "other-conv", "u1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("wrong-conversation delete should be not-found, got %v", err)
	}
	if err := DeleteMessage(db, m.ID, "c1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetMessage(db, m.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("message should be gone, got %v", err)
	}
}
