package claim

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/linebid/linebid/internal/broadcast"
	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Operation{},
		&models.BidLine{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testDB(t *testing.T) *gorm.DB {
	return openDB(t, ":memory:")
}

// fileDB is a file-backed database usable from concurrent goroutines;
// a plain :memory: DSN gives each pooled connection its own database.
func fileDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "claim.db")
	return openDB(t, "file:"+path+"?_busy_timeout=10000")
}

func seedLine(t *testing.T, db *gorm.DB) *models.BidLine {
	t.Helper()
	var op models.Operation
	if err := db.Where(models.Operation{Name: "Terminal A"}).FirstOrCreate(&op).Error; err != nil {
		t.Fatalf("seed operation: %v", err)
	}
	line := models.BidLine{LineNumber: 101, OperationID: op.ID, Status: models.StatusAvailable}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("seed line: %v", err)
	}
	return &line
}

// recordingBroadcaster captures published events.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast.Event
	fail   bool
}

func (b *recordingBroadcaster) Publish(event broadcast.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	if b.fail {
		return errors.New("broadcaster down")
	}
	return nil
}

func TestClaim_Success(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	events := &recordingBroadcaster{}
	m := New(db, events, true)

	claimed, err := m.Claim(line.ID, "u-1")
	if err != nil {
		t.Fatalf("Claim() error: %v", err)
	}

	if claimed.Status != models.StatusTaken {
		t.Errorf("Status = %s, want TAKEN", claimed.Status)
	}
	if claimed.TakenBy == nil || *claimed.TakenBy != "u-1" {
		t.Errorf("TakenBy = %v, want u-1", claimed.TakenBy)
	}
	if claimed.TakenAt == nil {
		t.Error("TakenAt = nil, want set")
	}

	var entries []models.ActivityLog
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("load activity log: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "claim" || entries[0].ActorID != "u-1" {
		t.Errorf("activity log = %+v, want one claim by u-1", entries)
	}

	if len(events.events) != 1 || events.events[0].Type != "claimed" {
		t.Errorf("events = %+v, want one claimed event", events.events)
	}
}

func TestClaim_ConflictCarriesCurrentState(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	m := New(db, nil, true)

	if _, err := m.Claim(line.ID, "u-1"); err != nil {
		t.Fatalf("first Claim() error: %v", err)
	}

	_, err := m.Claim(line.ID, "u-2")
	var conflict *errs.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second Claim() error = %v, want ConflictError", err)
	}
	if conflict.Status != models.StatusTaken {
		t.Errorf("conflict.Status = %s, want TAKEN", conflict.Status)
	}
	if conflict.TakenBy != "u-1" {
		t.Errorf("conflict.TakenBy = %q, want u-1 (caller needs the holder)", conflict.TakenBy)
	}
}

func TestClaim_UnknownLine(t *testing.T) {
	db := testDB(t)
	m := New(db, nil, true)

	_, err := m.Claim(999, "u-1")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Claim(unknown) error = %v, want NotFoundError", err)
	}
}

func TestClaim_PolicyDisabled(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	m := New(db, nil, false)

	_, err := m.Claim(line.ID, "u-1")
	var policy *errs.PolicyError
	if !errors.As(err, &policy) {
		t.Fatalf("Claim() error = %v, want PolicyError", err)
	}

	// No partial effect: the line is untouched and nothing was logged.
	var fresh models.BidLine
	db.First(&fresh, line.ID)
	if fresh.Status != models.StatusAvailable {
		t.Errorf("Status = %s, want AVAILABLE", fresh.Status)
	}
	var count int64
	db.Model(&models.ActivityLog{}).Count(&count)
	if count != 0 {
		t.Errorf("activity log rows = %d, want 0", count)
	}
}

func TestClaim_EmptyActor(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	m := New(db, nil, true)

	_, err := m.Claim(line.ID, "")
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Claim(empty actor) error = %v, want ValidationError", err)
	}
}

func TestClaim_ExactlyOnce(t *testing.T) {
	db := fileDB(t)
	line := seedLine(t, db)
	m := New(db, nil, true)

	const n = 8
	var wg sync.WaitGroup
	outcomes := make(chan error, n)

	for i := 0; i < n; i++ {
		actor := string(rune('a' + i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Claim(line.ID, actor)
			outcomes <- err
		}()
	}
	wg.Wait()
	close(outcomes)

	wins, conflicts := 0, 0
	for err := range outcomes {
		switch {
		case err == nil:
			wins++
		default:
			var conflict *errs.ConflictError
			if !errors.As(err, &conflict) {
				t.Errorf("unexpected error kind: %v", err)
				continue
			}
			conflicts++
		}
	}

	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if conflicts != n-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, n-1)
	}
}

func TestClaim_PublishFailureDoesNotRollBack(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	events := &recordingBroadcaster{fail: true}
	m := New(db, events, true)

	claimed, err := m.Claim(line.ID, "u-1")
	if err != nil {
		t.Fatalf("Claim() error = %v, want nil despite publish failure", err)
	}
	if claimed.Status != models.StatusTaken {
		t.Errorf("Status = %s, want TAKEN", claimed.Status)
	}
}

func TestAdminTransition_AssignReleaseBlackout(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	events := &recordingBroadcaster{}
	m := New(db, events, false) // policy off: admin paths still work

	assigned, err := m.AdminTransition(line.ID, ActionAssign, Payload{ActorID: "admin", AssignTo: "u-5"})
	if err != nil {
		t.Fatalf("assign error: %v", err)
	}
	if assigned.Status != models.StatusTaken || *assigned.TakenBy != "u-5" {
		t.Errorf("after assign: %s/%v, want TAKEN/u-5", assigned.Status, assigned.TakenBy)
	}

	released, err := m.AdminTransition(line.ID, ActionRelease, Payload{ActorID: "admin"})
	if err != nil {
		t.Fatalf("release error: %v", err)
	}
	if released.Status != models.StatusAvailable || released.TakenBy != nil || released.TakenAt != nil {
		t.Errorf("after release: %+v, want AVAILABLE with cleared actor fields", released)
	}

	blacked, err := m.AdminTransition(line.ID, ActionBlackout, Payload{ActorID: "admin", Details: "maintenance"})
	if err != nil {
		t.Fatalf("blackout error: %v", err)
	}
	if blacked.Status != models.StatusBlackedOut || *blacked.TakenBy != "admin" {
		t.Errorf("after blackout: %s/%v, want BLACKED_OUT/admin", blacked.Status, blacked.TakenBy)
	}

	// Blackout is re-entered to AVAILABLE by release.
	reopened, err := m.AdminTransition(line.ID, ActionRelease, Payload{ActorID: "admin"})
	if err != nil {
		t.Fatalf("release after blackout error: %v", err)
	}
	if reopened.Status != models.StatusAvailable {
		t.Errorf("after reopen: %s, want AVAILABLE", reopened.Status)
	}

	var count int64
	db.Model(&models.ActivityLog{}).Count(&count)
	if count != 4 {
		t.Errorf("activity log rows = %d, want 4", count)
	}
	if len(events.events) != 4 {
		t.Errorf("events = %d, want 4", len(events.events))
	}
}

func TestAdminTransition_BlackoutFromTaken(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	m := New(db, nil, true)

	if _, err := m.Claim(line.ID, "u-1"); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	blacked, err := m.AdminTransition(line.ID, ActionBlackout, Payload{ActorID: "admin"})
	if err != nil {
		t.Fatalf("blackout from TAKEN error: %v", err)
	}
	if blacked.Status != models.StatusBlackedOut {
		t.Errorf("Status = %s, want BLACKED_OUT", blacked.Status)
	}
}

func TestAdminTransition_InvalidStarts(t *testing.T) {
	db := testDB(t)
	m := New(db, nil, true)

	tests := []struct {
		name   string
		setup  func(line *models.BidLine)
		action Action
	}{
		{"assign on taken", func(line *models.BidLine) { m.Claim(line.ID, "u-1") }, ActionAssign},
		{"release on available", func(*models.BidLine) {}, ActionRelease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := seedLine(t, db)
			tt.setup(line)

			payload := Payload{ActorID: "admin", AssignTo: "u-2"}
			_, err := m.AdminTransition(line.ID, tt.action, payload)
			var conflict *errs.ConflictError
			if !errors.As(err, &conflict) {
				t.Errorf("error = %v, want ConflictError", err)
			}
		})
	}
}

func TestAdminTransition_Validation(t *testing.T) {
	db := testDB(t)
	line := seedLine(t, db)
	m := New(db, nil, true)

	tests := []struct {
		name    string
		action  Action
		payload Payload
	}{
		{"unknown action", Action("promote"), Payload{ActorID: "admin"}},
		{"assign without user", ActionAssign, Payload{ActorID: "admin"}},
		{"missing actor", ActionRelease, Payload{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AdminTransition(line.ID, tt.action, tt.payload)
			var verr *errs.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}
