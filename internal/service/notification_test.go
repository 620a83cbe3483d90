package service_test

import (
	"StudyVault/internal/apperr"
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/model"
	"testing"
)

// TestModerationNotifies tests that decisions leave a notification row.
func TestModerationNotifies(t *testing.T) {
	cleanTables(t)
	admin := newTestUser(t, model.RoleAdmin)
	teacher := newTestUser(t, model.RoleTeacher)
	material := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusPending, "")

	if _, err := service.DecideMaterial(material.ID, admin.ID, "reject", "off topic"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	notifications, total, err := service.ListNotifications(teacher.ID, "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one notification, got %d", total)
	}
	if notifications[0].Type != model.NotifyMaterialRejected {
		t.Fatalf("unexpected type %s", notifications[0].Type)
	}
	if notifications[0].Status != model.NotificationUnread {
		t.Fatal("new notification should be unread")
	}
}

// TestNotificationReadFlow tests mark-read, mark-all, and the counter.
func TestNotificationReadFlow(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	other := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	// two incoming requests produce two teacher notifications
	if _, err := service.CreateRequest(material.ID, student.ID, ""); err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if _, err := service.CreateRequest(material.ID, other.ID, ""); err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	count, err := service.UnreadCount(teacher.ID)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 unread, got %d err=%v", count, err)
	}

	notifications, _, err := service.ListNotifications(teacher.ID, "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	// users cannot mark someone else's notification
	if err := service.MarkNotificationRead(notifications[0].ID, student.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("foreign mark should be NotFound, got %v", err)
	}

	if err := service.MarkNotificationRead(notifications[0].ID, teacher.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	count, _ = service.UnreadCount(teacher.ID)
	if count != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", count)
	}

	updated, err := service.MarkAllNotificationsRead(teacher.ID)
	if err != nil || updated != 1 {
		t.Fatalf("expected 1 updated, got %d err=%v", updated, err)
	}
	count, _ = service.UnreadCount(teacher.ID)
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}

// TestSearchMaterials tests free-text search with the access filter.
func TestSearchMaterials(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)

	visible := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusApproved, "")
	newTestMaterial(t, teacher.ID, model.AccessTypePrivate, model.MaterialStatusApproved, "pw")

	results, total, err := service.SearchMaterials(&dto.SearchMaterialsRequest{Query: "Calculus"}, student.ID, model.RoleStudent)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || results[0].ID != visible.ID {
		t.Fatalf("expected only the public match, got %d results", total)
	}

	_, total, err = service.SearchMaterials(&dto.SearchMaterialsRequest{Query: "no such title"}, student.ID, model.RoleStudent)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no matches, got %d", total)
	}
}
