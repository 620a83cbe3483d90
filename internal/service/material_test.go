package service_test

import (
	"StudyVault/internal/apperr"
	"StudyVault/internal/dto"
	"StudyVault/internal/repo"
	"StudyVault/internal/service"
	"StudyVault/internal/storage"
	"StudyVault/model"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
)

// TestCreateMaterialStartsPending tests that submissions enter moderation.
func TestCreateMaterialStartsPending(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)

	material, err := service.CreateMaterial(&dto.CreateMaterialRequest{
		Title:        "Linear Algebra",
		MaterialType: "book",
		FileURL:      "/studyvault/materials/la.pdf",
	}, teacher.ID)
	if err != nil {
		t.Fatalf("CreateMaterial failed: %v", err)
	}
	if material.Status != model.MaterialStatusPending {
		t.Fatalf("expected pending status, got %s", material.Status)
	}
	if material.VerifiedBy != nil || material.VerifiedAt != nil {
		t.Fatal("new material should have no verification fields")
	}
}

// TestCreateMaterialContentSource tests the one-source rule.
func TestCreateMaterialContentSource(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)

	_, err := service.CreateMaterial(&dto.CreateMaterialRequest{
		Title:        "Both sources",
		MaterialType: "note",
		FileURL:      "/f.pdf",
		YoutubeURL:   "https://youtube.com/watch?v=abc",
	}, teacher.ID)
	if !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}

	_, err = service.CreateMaterial(&dto.CreateMaterialRequest{
		Title:        "No source",
		MaterialType: "note",
	}, teacher.ID)
	if !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
}

// TestCreateMaterialPrivateNeedsCode tests the private access code rule.
func TestCreateMaterialPrivateNeedsCode(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)

	_, err := service.CreateMaterial(&dto.CreateMaterialRequest{
		Title:        "Secret notes",
		MaterialType: "note",
		FileURL:      "/f.pdf",
		AccessType:   model.AccessTypePrivate,
	}, teacher.ID)
	if !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}

	material, err := service.CreateMaterial(&dto.CreateMaterialRequest{
		Title:        "Public notes",
		MaterialType: "note",
		FileURL:      "/f.pdf",
		AccessType:   model.AccessTypePublic,
		AccessCode:   "should-be-dropped",
	}, teacher.ID)
	if err != nil {
		t.Fatalf("CreateMaterial failed: %v", err)
	}
	if material.AccessCode != "" {
		t.Fatal("non-private material must not keep an access code")
	}
}

// TestDecideMaterial tests approve and reject transitions.
func TestDecideMaterial(t *testing.T) {
	cleanTables(t)
	admin := newTestUser(t, model.RoleAdmin)
	teacher := newTestUser(t, model.RoleTeacher)

	material := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusPending, "")
	approved, err := service.DecideMaterial(material.ID, admin.ID, "approve", "")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != model.MaterialStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.VerifiedBy == nil || *approved.VerifiedBy != admin.ID {
		t.Fatal("verified_by should record the deciding admin")
	}
	if approved.RejectionReason != "" {
		t.Fatal("approved material must not carry a rejection reason")
	}

	// second decision hits a settled material and names where it settled
	_, err = service.DecideMaterial(material.ID, admin.ID, "reject", "late")
	if !apperr.IsKind(err, apperr.InvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	if !strings.Contains(err.Error(), model.MaterialStatusApproved) {
		t.Fatalf("error should report the settled status, got %q", err.Error())
	}

	rejectable := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusPending, "")
	_, err = service.DecideMaterial(rejectable.ID, admin.ID, "reject", "")
	if !apperr.IsKind(err, apperr.ValidationFailed) {
		t.Fatalf("reject without reason should fail validation, got %v", err)
	}
	rejected, err := service.DecideMaterial(rejectable.ID, admin.ID, "reject", "duplicate upload")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.RejectionReason != "duplicate upload" {
		t.Fatalf("expected rejection reason recorded, got %q", rejected.RejectionReason)
	}
}

// TestDecideMaterialConcurrent tests that racing decisions settle once.
func TestDecideMaterialConcurrent(t *testing.T) {
	cleanTables(t)
	admin := newTestUser(t, model.RoleAdmin)
	teacher := newTestUser(t, model.RoleTeacher)
	material := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusPending, "")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			decision := "approve"
			reason := ""
			if n%2 == 1 {
				decision = "reject"
				reason = "race"
			}
			_, errs[n] = service.DecideMaterial(material.ID, admin.ID, decision, reason)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !apperr.IsKind(err, apperr.InvalidState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one decision to win, got %d", wins)
	}
}

// TestUpdateMaterialReModeration tests that content edits reset moderation.
func TestUpdateMaterialReModeration(t *testing.T) {
	cleanTables(t)
	admin := newTestUser(t, model.RoleAdmin)
	teacher := newTestUser(t, model.RoleTeacher)
	material := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusPending, "")

	if _, err := service.DecideMaterial(material.ID, admin.ID, "approve", ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	title := "Revised Calculus Notes"
	updated, err := service.UpdateMaterial(material.ID, &dto.UpdateMaterialRequest{Title: &title}, teacher.ID, model.RoleTeacher)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != model.MaterialStatusPending {
		t.Fatalf("content edit should reset status to pending, got %s", updated.Status)
	}
	if updated.VerifiedBy != nil || updated.VerifiedAt != nil {
		t.Fatal("re-moderated material should clear verification fields")
	}

	// metadata-only edit by an admin keeps the status
	if _, err := service.DecideMaterial(material.ID, admin.ID, "approve", ""); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	adminTitle := "Admin Touch"
	kept, err := service.UpdateMaterial(material.ID, &dto.UpdateMaterialRequest{Title: &adminTitle}, admin.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if kept.Status != model.MaterialStatusApproved {
		t.Fatalf("admin edit should not trigger re-moderation, got %s", kept.Status)
	}
}

// TestUpdateMaterialOwnership tests the owner check.
func TestUpdateMaterialOwnership(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	other := newTestUser(t, model.RoleTeacher)
	material := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusApproved, "")

	title := "hijack"
	_, err := service.UpdateMaterial(material.ID, &dto.UpdateMaterialRequest{Title: &title}, other.ID, model.RoleTeacher)
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

// TestDeleteMaterialCascades tests the ledger and bookmark cascade.
func TestDeleteMaterialCascades(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypePrivate, model.MaterialStatusApproved, "code-1")

	if _, err := service.RedeemCode(material.ID, student.ID, "code-1"); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if _, err := service.AddBookmark(student.ID, material.ID); err != nil {
		t.Fatalf("bookmark failed: %v", err)
	}

	if err := service.DeleteMaterial(context.Background(), material.ID, teacher.ID, model.RoleTeacher); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var ledger, bookmarks int64
	repo.Db.Model(&model.MaterialAccess{}).Where("material_id = ?", material.ID).Count(&ledger)
	repo.Db.Model(&model.Bookmark{}).Where("material_id = ?", material.ID).Count(&bookmarks)
	if ledger != 0 || bookmarks != 0 {
		t.Fatalf("expected cascade, got %d ledger rows and %d bookmarks", ledger, bookmarks)
	}

	if err := service.DeleteMaterial(context.Background(), material.ID, teacher.ID, model.RoleTeacher); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

// TestOpenMaterialObject tests streamed downloads from object storage.
func TestOpenMaterialObject(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	outsider := newTestUser(t, model.RoleStudent)
	ctx := context.Background()

	content := []byte("chapter one")
	objectName := "materials/stream-test.pdf"
	err := storage.Default.PutObject(ctx, storage.Minio.Bucket, objectName,
		bytes.NewReader(content), int64(len(content)), storage.PutOptions{ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("put object failed: %v", err)
	}

	material := newTestMaterial(t, teacher.ID, model.AccessTypePrivate, model.MaterialStatusApproved, "stream")
	if err := repo.Db.Model(material).Update("object_name", objectName).Error; err != nil {
		t.Fatalf("point material at object failed: %v", err)
	}

	// access gate applies before any byte is served
	_, _, _, err = service.OpenMaterialObject(ctx, material.ID, outsider.ID, model.RoleStudent)
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden without redeem, got %v", err)
	}

	if _, err := service.RedeemCode(material.ID, student.ID, "stream"); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	object, info, opened, err := service.OpenMaterialObject(ctx, material.ID, student.ID, model.RoleStudent)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer object.Close()
	if info.Size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), info.Size)
	}
	if opened.ID != material.ID {
		t.Fatal("open should return the material record")
	}
	got, err := io.ReadAll(object)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("streamed bytes differ: %q", got)
	}

	// video materials have nothing to stream
	video := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusApproved, "")
	if err := repo.Db.Model(video).Updates(map[string]interface{}{
		"object_name": "", "file_url": "", "youtube_url": "https://youtube.com/watch?v=abc",
	}).Error; err != nil {
		t.Fatalf("convert to video failed: %v", err)
	}
	_, _, _, err = service.OpenMaterialObject(ctx, video.ID, student.ID, model.RoleStudent)
	if !apperr.IsKind(err, apperr.InvalidState) {
		t.Fatalf("expected InvalidState for video, got %v", err)
	}
}

// TestListMaterialsVisibility tests the catalogue access filter.
func TestListMaterialsVisibility(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)

	newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusApproved, "")
	newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")
	newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusPending, "")
	hidden := newTestMaterial(t, teacher.ID, model.AccessTypePrivate, model.MaterialStatusApproved, "code-2")

	materials, total, err := service.ListMaterials(&dto.MaterialListRequest{}, student.ID, model.RoleStudent)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("student should see 2 materials, got %d", total)
	}
	for _, m := range materials {
		if m.ID == hidden.ID {
			t.Fatal("unredeemed private material leaked into the listing")
		}
	}

	// redeeming the code makes the private material visible
	if _, err := service.RedeemCode(hidden.ID, student.ID, "code-2"); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	_, total, err = service.ListMaterials(&dto.MaterialListRequest{}, student.ID, model.RoleStudent)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("student should see 3 materials after redeem, got %d", total)
	}

	// the uploader sees everything they own
	_, total, err = service.ListMaterials(&dto.MaterialListRequest{}, teacher.ID, model.RoleTeacher)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("uploader should see own approved plus shared, got %d", total)
	}
}
