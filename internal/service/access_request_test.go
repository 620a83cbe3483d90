package service_test

import (
	"StudyVault/internal/apperr"
	"StudyVault/internal/dto"
	"StudyVault/internal/repo"
	"StudyVault/internal/service"
	"StudyVault/model"
	"sync"
	"testing"
	"time"
)

// TestCreateRequestPreconditions tests who may open a request and against
// which materials.
func TestCreateRequestPreconditions(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)

	public := newTestMaterial(t, teacher.ID, model.AccessTypePublic, model.MaterialStatusApproved, "")
	if _, err := service.CreateRequest(public.ID, student.ID, "please"); !apperr.IsKind(err, apperr.InvalidState) {
		t.Fatalf("public material should reject requests, got %v", err)
	}

	pending := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusPending, "")
	if _, err := service.CreateRequest(pending.ID, student.ID, ""); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("unapproved material should read as missing, got %v", err)
	}

	gated := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")
	if _, err := service.CreateRequest(gated.ID, teacher.ID, ""); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("self-request should conflict, got %v", err)
	}

	request, err := service.CreateRequest(gated.ID, student.ID, "for my thesis")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if request.Status != model.RequestStatusPending {
		t.Fatalf("new request should be pending, got %s", request.Status)
	}
	if request.TeacherID != teacher.ID {
		t.Fatal("teacher should be frozen from the uploader")
	}
	wantDeadline := request.CreatedAt.Add(model.AutoCancelAfter)
	if diff := request.AutoCancelAt.Sub(wantDeadline); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("auto_cancel_at should sit 7 days after creation, off by %v", diff)
	}

	// a second live request for the same pair conflicts
	if _, err := service.CreateRequest(gated.ID, student.ID, "again"); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("duplicate live request should conflict, got %v", err)
	}
}

// TestCreateRequestConcurrent tests that racing creates leave one live row.
func TestCreateRequestConcurrent(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = service.CreateRequest(material.ID, student.ID, "race")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !apperr.IsKind(err, apperr.Conflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one create to win, got %d", wins)
	}

	var count int64
	repo.Db.Model(&model.AccessRequest{}).
		Where("student_id = ? AND material_id = ?", student.ID, material.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one request row, got %d", count)
	}
}

// TestRespondRequest tests the settle-once transition.
func TestRespondRequest(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	other := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	request, err := service.CreateRequest(material.ID, student.ID, "")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	// only the frozen teacher may respond
	_, err = service.RespondRequest(request.ID, other.ID, &dto.RespondAccessRequestRequest{Action: "approve"})
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}

	days := 30
	approved, err := service.RespondRequest(request.ID, teacher.ID, &dto.RespondAccessRequestRequest{
		Action:        "approve",
		Message:       "welcome",
		ExpiresInDays: &days,
	})
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if approved.Status != model.RequestStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.AccessExpiresAt == nil {
		t.Fatal("expected an expiry when expires_in_days is set")
	}
	if approved.RespondedAt == nil {
		t.Fatal("responded_at should be recorded")
	}

	ok, err := service.HasActiveApproval(student.ID, material.ID, time.Now())
	if err != nil || !ok {
		t.Fatalf("approval should grant access, ok=%v err=%v", ok, err)
	}

	// second response hits a settled request
	_, err = service.RespondRequest(request.ID, teacher.ID, &dto.RespondAccessRequestRequest{Action: "reject"})
	if !apperr.IsKind(err, apperr.InvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

// TestRespondRequestConcurrent tests that racing responses settle once.
func TestRespondRequestConcurrent(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	request, err := service.CreateRequest(material.ID, student.ID, "")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			action := "approve"
			if n%2 == 1 {
				action = "reject"
			}
			_, errs[n] = service.RespondRequest(request.ID, teacher.ID, &dto.RespondAccessRequestRequest{Action: action})
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
		t.Fatalf("expected exactly one response to win, got %d", wins)
	}

	var settled model.AccessRequest
	if err := repo.Db.Where("id = ?", request.ID).First(&settled).Error; err != nil {
		t.Fatalf("load request failed: %v", err)
	}
	if settled.Status != model.RequestStatusApproved && settled.Status != model.RequestStatusRejected {
		t.Fatalf("request should be settled, got %s", settled.Status)
	}
	if settled.RespondedAt == nil {
		t.Fatal("settled request should record responded_at")
	}
}

// TestRejectFreesSlot tests that a rejection lets the student re-request.
func TestRejectFreesSlot(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	request, err := service.CreateRequest(material.ID, student.ID, "")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	rejected, err := service.RespondRequest(request.ID, teacher.ID, &dto.RespondAccessRequestRequest{Action: "reject", Message: "no"})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != model.RequestStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}

	if _, err := service.CreateRequest(material.ID, student.ID, "second try"); err != nil {
		t.Fatalf("re-request after rejection should succeed: %v", err)
	}
}

// TestCancelRequest tests student withdrawal and the recreate path.
func TestCancelRequest(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	intruder := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	request, err := service.CreateRequest(material.ID, student.ID, "")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	if _, err := service.CancelRequest(request.ID, intruder.ID); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden for foreign cancel, got %v", err)
	}

	cancelled, err := service.CancelRequest(request.ID, student.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.RequestStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	if _, err := service.CancelRequest(request.ID, student.ID); !apperr.IsKind(err, apperr.InvalidState) {
		t.Fatalf("double cancel should be InvalidState, got %v", err)
	}

	// the slot is free again
	if _, err := service.CreateRequest(material.ID, student.ID, "take two"); err != nil {
		t.Fatalf("re-request after cancel should succeed: %v", err)
	}
}

// TestAutoCancelSweep tests the stale-request sweep and its idempotence.
func TestAutoCancelSweep(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	request, err := service.CreateRequest(material.ID, student.ID, "")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	// not yet due
	cancelled, err := service.AutoCancelSweep(time.Now())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if cancelled != 0 {
		t.Fatalf("fresh request must not be swept, got %d", cancelled)
	}

	after := time.Now().Add(model.AutoCancelAfter + time.Hour)
	cancelled, err = service.AutoCancelSweep(after)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected one cancellation, got %d", cancelled)
	}

	var swept model.AccessRequest
	if err := repo.Db.Where("id = ?", request.ID).First(&swept).Error; err != nil {
		t.Fatalf("load request failed: %v", err)
	}
	if swept.Status != model.RequestStatusCancelled {
		t.Fatalf("expected cancelled, got %s", swept.Status)
	}
	if swept.Active != nil {
		t.Fatal("swept request should free the unique slot")
	}

	// a second sweep over the same window is a no-op
	cancelled, err = service.AutoCancelSweep(after)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if cancelled != 0 {
		t.Fatalf("sweep should be idempotent, got %d", cancelled)
	}
}

// TestRequestListings tests the student and teacher views.
func TestRequestListings(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	studentA := newTestUser(t, model.RoleStudent)
	studentB := newTestUser(t, model.RoleStudent)
	materialA := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")
	materialB := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	reqA, err := service.CreateRequest(materialA.ID, studentA.ID, "")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if _, err := service.CreateRequest(materialB.ID, studentA.ID, ""); err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if _, err := service.CreateRequest(materialA.ID, studentB.ID, ""); err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if _, err := service.RespondRequest(reqA.ID, teacher.ID, &dto.RespondAccessRequestRequest{Action: "approve"}); err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	mine, total, err := service.GetStudentRequests(studentA.ID, &dto.StudentRequestsRequest{})
	if err != nil {
		t.Fatalf("student listing failed: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("student A should see 2 requests, got %d", total)
	}

	_, total, err = service.GetStudentRequests(studentA.ID, &dto.StudentRequestsRequest{Status: model.RequestStatusApproved})
	if err != nil {
		t.Fatalf("student listing failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("status filter should leave 1 request, got %d", total)
	}

	_, total, err = service.GetTeacherRequests(teacher.ID, &dto.TeacherRequestsRequest{})
	if err != nil {
		t.Fatalf("teacher listing failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("teacher should see 3 requests, got %d", total)
	}

	_, total, err = service.GetTeacherRequests(teacher.ID, &dto.TeacherRequestsRequest{Status: model.RequestStatusPending})
	if err != nil {
		t.Fatalf("teacher listing failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("teacher should see 2 pending requests, got %d", total)
	}
}

// TestTeacherRequestSearch tests the free-text filter over student names
// and material titles.
func TestTeacherRequestSearch(t *testing.T) {
	cleanTables(t)
	teacher := newTestUser(t, model.RoleTeacher)
	studentA := newTestUser(t, model.RoleStudent)
	studentB := newTestUser(t, model.RoleStudent)
	materialA := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")
	materialB := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")
	if err := repo.Db.Model(materialB).Update("title", "Quantum Mechanics Slides").Error; err != nil {
		t.Fatalf("retitle material failed: %v", err)
	}

	if _, err := service.CreateRequest(materialA.ID, studentA.ID, ""); err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if _, err := service.CreateRequest(materialB.ID, studentA.ID, ""); err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if _, err := service.CreateRequest(materialA.ID, studentB.ID, ""); err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	// by student username
	_, total, err := service.GetTeacherRequests(teacher.ID, &dto.TeacherRequestsRequest{Search: studentA.UserName})
	if err != nil {
		t.Fatalf("search by student failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected student A's 2 requests, got %d", total)
	}

	// by material title
	_, total, err = service.GetTeacherRequests(teacher.ID, &dto.TeacherRequestsRequest{Search: "Quantum"})
	if err != nil {
		t.Fatalf("search by title failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 request for the retitled material, got %d", total)
	}

	_, total, err = service.GetTeacherRequests(teacher.ID, &dto.TeacherRequestsRequest{Search: "no such thing"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no matches, got %d", total)
	}
}

// TestGetRequestVisibility tests the role scoping of single reads.
func TestGetRequestVisibility(t *testing.T) {
	cleanTables(t)
	admin := newTestUser(t, model.RoleAdmin)
	teacher := newTestUser(t, model.RoleTeacher)
	student := newTestUser(t, model.RoleStudent)
	outsider := newTestUser(t, model.RoleStudent)
	material := newTestMaterial(t, teacher.ID, model.AccessTypeRequestBased, model.MaterialStatusApproved, "")

	request, err := service.CreateRequest(material.ID, student.ID, "")
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	for _, caller := range []struct {
		id   uint64
		role string
	}{
		{student.ID, model.RoleStudent},
		{teacher.ID, model.RoleTeacher},
		{admin.ID, model.RoleAdmin},
	} {
		if _, err := service.GetRequestByID(request.ID, caller.id, caller.role); err != nil {
			t.Fatalf("caller %d should see the request: %v", caller.id, err)
		}
	}

	if _, err := service.GetRequestByID(request.ID, outsider.ID, model.RoleStudent); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("outsider should be forbidden, got %v", err)
	}
}
