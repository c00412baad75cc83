package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Gorm is the Postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(ctx context.Context, dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(
		&Team{},
		&Member{},
		&Round1Submission{},
		&AssignmentQueueEntry{},
		&LeaderboardEntry{},
		&SessionLogEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Gorm{db: db}, nil
}

func NewGorm(db *gorm.DB) *Gorm { return &Gorm{db: db} }

func (s *Gorm) EnsureTeam(ctx context.Context, teamID, teamName string) (*Team, bool, error) {
	var team Team
	res := s.db.WithContext(ctx).
		Where(Team{TeamID: teamID}).
		Attrs(Team{TeamName: teamName, StartTime: time.Now()}).
		FirstOrCreate(&team)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0
	full, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, false, err
	}
	return full, created, nil
}

func (s *Gorm) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	var team Team
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Round1Submissions").
		Where("team_id = ?", teamID).
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// SaveTeam rewrites the record and its association rows. Members and
// submissions are replaced wholesale so removals (admin reset) take effect.
func (s *Gorm) SaveTeam(ctx context.Context, team *Team) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", team.TeamID).Delete(&Member{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", team.TeamID).Delete(&Round1Submission{}).Error; err != nil {
			return err
		}
		for i := range team.Members {
			team.Members[i].ID = 0
			team.Members[i].TeamID = team.TeamID
		}
		for i := range team.Round1Submissions {
			team.Round1Submissions[i].ID = 0
			team.Round1Submissions[i].TeamID = team.TeamID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(team).Error
	})
}

func (s *Gorm) Teams(ctx context.Context) ([]TeamSummary, error) {
	var teams []Team
	if err := s.db.WithContext(ctx).Find(&teams).Error; err != nil {
		return nil, err
	}
	out := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamSummary{
			TeamID:         t.TeamID,
			TeamName:       t.TeamName,
			Round:          t.Round,
			Round1Complete: t.Round1Complete,
			Round2Complete: t.Round2Complete,
		})
	}
	return out, nil
}

func (s *Gorm) CountCompletedAssignments(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&AssignmentQueueEntry{}).
		Where("completed = ?", true).
		Count(&n).Error
	return int(n), err
}

func (s *Gorm) ApplyAssignment(ctx context.Context, team *Team, entry AssignmentQueueEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"switch_s0":        team.SwitchS0,
			"switch_s1":        team.SwitchS1,
			"switch_s2":        team.SwitchS2,
			"switch_s3":        team.SwitchS3,
			"key4_bit":         team.Key4Bit,
			"key8_bit":         team.Key8Bit,
			"queue_position":   team.QueuePosition,
			"assigned_number":  team.AssignedNumber,
			"encryption_value": team.EncryptionValue,
		}
		res := tx.Model(&Team{}).Where("team_id = ?", team.TeamID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(&entry).Error
	})
}

func (s *Gorm) QueueEntries(ctx context.Context) ([]AssignmentQueueEntry, error) {
	var entries []AssignmentQueueEntry
	err := s.db.WithContext(ctx).Order("position asc").Limit(100).Find(&entries).Error
	return entries, err
}

func (s *Gorm) QueueCounts(ctx context.Context) (QueueCounts, error) {
	var counts QueueCounts
	if err := s.db.WithContext(ctx).Model(&Team{}).Count(&counts.TotalTeams).Error; err != nil {
		return counts, err
	}
	if err := s.db.WithContext(ctx).Model(&AssignmentQueueEntry{}).
		Where("completed = ?", true).Count(&counts.AssignedTeams).Error; err != nil {
		return counts, err
	}
	err := s.db.WithContext(ctx).Model(&AssignmentQueueEntry{}).
		Where("completed = ?", false).Count(&counts.PendingTeams).Error
	return counts, err
}

func (s *Gorm) ResetQueue(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&AssignmentQueueEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&Round1Submission{}).Error; err != nil {
			return err
		}
		return tx.Model(&Team{}).Where("1 = 1").Updates(map[string]any{
			"switch_s0":        nil,
			"switch_s1":        nil,
			"switch_s2":        nil,
			"switch_s3":        nil,
			"key4_bit":         "",
			"key8_bit":         "",
			"queue_position":   nil,
			"round":            0,
			"round1_complete":  false,
			"assigned_number":  nil,
			"encryption_value": nil,
		}).Error
	})
}

func (s *Gorm) UpsertLeaderboard(ctx context.Context, entry LeaderboardEntry) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"team_name", "time_elapsed", "resubmissions", "completion_date",
		}),
	}).Create(&entry).Error
}

func (s *Gorm) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := s.db.WithContext(ctx).
		Order("time_elapsed asc").
		Order("resubmissions asc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *Gorm) AppendLog(ctx context.Context, entry SessionLogEntry) error {
	return s.db.WithContext(ctx).Create(&entry).Error
}

func (s *Gorm) Logs(ctx context.Context, teamID string) ([]SessionLogEntry, error) {
	var logs []SessionLogEntry
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("timestamp desc").
		Find(&logs).Error
	return logs, err
}

func (s *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
