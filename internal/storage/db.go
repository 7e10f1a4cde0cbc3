package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// recordBatchSize bounds the number of rows per INSERT during bulk creation.
const recordBatchSize = 100

// Database is the durable store for periods, records and config entries.
// It is not safe for concurrent use; callers serialize access.
type Database struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewDatabase opens (or creates) the SQLite database at dbPath and migrates
// the schema. Foreign keys are enforced so record rows follow their period.
func NewDatabase(dbPath string, log zerolog.Logger) (*Database, error) {
	dsn := dbPath
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Period{}, &Record{}, &ConfigEntry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Database{db: db, log: log.With().Str("component", "storage").Logger()}, nil
}

// Close releases the underlying connection.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withTx runs fn inside a single transaction. It commits exactly once when fn
// returns nil and rolls back on any error or panic.
func (d *Database) withTx(op string, fn func(tx *gorm.DB) error) error {
	err := d.db.Transaction(fn)
	if err != nil {
		d.log.Debug().Str("op", op).Err(err).Msg("transaction rolled back")
		return classify(op, err)
	}
	d.log.Debug().Str("op", op).Msg("transaction committed")
	return nil
}

// insertPeriod creates the period row inside tx, reporting name collisions as
// DuplicateNameError.
func insertPeriod(tx *gorm.DB, p *Period) error {
	var count int64
	if err := tx.Model(&Period{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateNameError{Name: p.Name}
	}
	if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return &DuplicateNameError{Name: p.Name}
		}
		return err
	}
	return nil
}

// CreatePeriod creates a period and returns its ID.
func (d *Database) CreatePeriod(name string, amountIn decimal.Decimal) (uint, error) {
	p := Period{Name: name, AmountIn: amountIn}
	err := d.withTx("create period", func(tx *gorm.DB) error {
		return insertPeriod(tx, &p)
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// GetPeriod returns the period with the given name, or nil if there is none.
func (d *Database) GetPeriod(name string) (*Period, error) {
	return d.findPeriod("get period", "name = ?", name)
}

// GetPeriodByID returns the period with the given ID, or nil if there is none.
func (d *Database) GetPeriodByID(id uint) (*Period, error) {
	return d.findPeriod("get period by id", "id = ?", id)
}

func (d *Database) findPeriod(op, query string, arg any) (*Period, error) {
	var p Period
	err := d.db.Where(query, arg).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	return &p, nil
}

// ListPeriods returns every period, newest first.
func (d *Database) ListPeriods() ([]Period, error) {
	var periods []Period
	if err := d.db.Order("created_at DESC").Order("id DESC").Find(&periods).Error; err != nil {
		return nil, &StorageError{Op: "list periods", Err: err}
	}
	return periods, nil
}

// RenamePeriod changes the name of period id.
func (d *Database) RenamePeriod(id uint, newName string) error {
	return d.withTx("rename period", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Period{}).Where("name = ? AND id <> ?", newName, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &DuplicateNameError{Name: newName}
		}
		res := tx.Model(&Period{}).Where("id = ?", id).Update("name", newName)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return &DuplicateNameError{Name: newName}
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "period", Key: id}
		}
		return nil
	})
}

// UpdatePeriodAmountIn sets the income figure of period id.
func (d *Database) UpdatePeriodAmountIn(id uint, amountIn decimal.Decimal) error {
	return d.withTx("update period income", func(tx *gorm.DB) error {
		res := tx.Model(&Period{}).Where("id = ?", id).Update("amount_in", amountIn)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "period", Key: id}
		}
		return nil
	})
}

// DeletePeriod removes the named period and all of its records.
func (d *Database) DeletePeriod(name string) error {
	return d.withTx("delete period", func(tx *gorm.DB) error {
		var p Period
		err := tx.Where("name = ?", name).Take(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "period", Key: name}
		}
		if err != nil {
			return err
		}
		if err := tx.Where("period_id = ?", p.ID).Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Period{}, p.ID).Error
	})
}

// ListRecords returns the records of a period in insertion order.
func (d *Database) ListRecords(periodID uint) ([]Record, error) {
	var records []Record
	if err := d.db.Where("period_id = ?", periodID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, &StorageError{Op: "list records", Err: err}
	}
	return records, nil
}

// CreateRecord stores r under periodID and sets r.ID and r.PeriodID.
func (d *Database) CreateRecord(periodID uint, r *Record) error {
	row := *r
	row.ID = 0
	row.PeriodID = periodID
	if row.Category == "" {
		row.Category = DefaultCategory
	}
	err := d.withTx("create record", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Period{}).Where("id = ?", periodID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return &NotFoundError{Entity: "period", Key: periodID}
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return err
	}
	*r = row
	return nil
}

// UpdateRecord overwrites every mutable column of the stored record r.ID.
func (d *Database) UpdateRecord(r Record) error {
	category := r.Category
	if category == "" {
		category = DefaultCategory
	}
	return d.withTx("update record", func(tx *gorm.DB) error {
		res := tx.Model(&Record{}).Where("id = ?", r.ID).Updates(map[string]any{
			"label":       r.Label,
			"amount":      r.Amount,
			"category":    category,
			"record_date": r.Date,
			"is_credit":   r.IsCredit,
			"done":        r.Done,
			"borrowed":    r.Borrowed,
			"fixed":       r.Fixed,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "record", Key: r.ID}
		}
		return nil
	})
}

// DeleteRecord removes record id.
func (d *Database) DeleteRecord(id uint) error {
	return d.withTx("delete record", func(tx *gorm.DB) error {
		res := tx.Delete(&Record{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "record", Key: id}
		}
		return nil
	})
}

// DeleteAllRecords removes every record of periodID.
func (d *Database) DeleteAllRecords(periodID uint) error {
	return d.withTx("delete all records", func(tx *gorm.DB) error {
		return tx.Where("period_id = ?", periodID).Delete(&Record{}).Error
	})
}

// DuplicateOptions controls how records are copied by DuplicatePeriod.
type DuplicateOptions struct {
	// ResetStatus clears the done and borrowed flags on the copies.
	ResetStatus bool
}

// DuplicateResult describes a successful duplication.
type DuplicateResult struct {
	PeriodID uint
	Name     string
	Copied   int
}

// DuplicatePeriod creates newName as a copy of period srcID, including its
// income figure and every record. Either the period and all copies persist or
// nothing does.
func (d *Database) DuplicatePeriod(srcID uint, newName string, opts DuplicateOptions) (DuplicateResult, error) {
	var result DuplicateResult
	err := d.withTx("duplicate period", func(tx *gorm.DB) error {
		var src Period
		err := tx.Where("id = ?", srcID).Take(&src).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "period", Key: srcID}
		}
		if err != nil {
			return err
		}

		dst := Period{Name: newName, AmountIn: src.AmountIn}
		if err := insertPeriod(tx, &dst); err != nil {
			return err
		}

		var records []Record
		if err := tx.Where("period_id = ?", srcID).Order("id ASC").Find(&records).Error; err != nil {
			return err
		}
		for _, r := range records {
			c := r
			c.ID = 0
			c.PeriodID = dst.ID
			if opts.ResetStatus {
				c.Done = false
				c.Borrowed = false
			}
			if err := tx.Create(&c).Error; err != nil {
				return fmt.Errorf("copy record %d: %w", r.ID, err)
			}
		}

		result = DuplicateResult{PeriodID: dst.ID, Name: dst.Name, Copied: len(records)}
		return nil
	})
	if err != nil {
		return DuplicateResult{}, err
	}
	return result, nil
}

// BulkCreatePeriodWithRecords creates a period and all of records in one
// transaction and returns the new period ID.
func (d *Database) BulkCreatePeriodWithRecords(name string, amountIn decimal.Decimal, records []Record) (uint, error) {
	p := Period{Name: name, AmountIn: amountIn}
	err := d.withTx("bulk create period", func(tx *gorm.DB) error {
		if err := insertPeriod(tx, &p); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		rows := make([]Record, len(records))
		for i, r := range records {
			r.ID = 0
			r.PeriodID = p.ID
			if r.Category == "" {
				r.Category = DefaultCategory
			}
			rows[i] = r
		}
		return tx.CreateInBatches(rows, recordBatchSize).Error
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// GetConfig returns the value stored under key and whether it exists.
func (d *Database) GetConfig(key string) (string, bool, error) {
	var entry ConfigEntry
	err := d.db.Where(clause.Eq{Column: "key", Value: key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "get config", Err: err}
	}
	return entry.Value, true, nil
}

// SetConfig stores value under key, replacing any previous value.
func (d *Database) SetConfig(key, value string) error {
	return d.withTx("set config", func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&ConfigEntry{Key: key, Value: value}).Error
	})
}
