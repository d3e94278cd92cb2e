package infra

import (
	"fmt"

	"tiendapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates the schema and applies the post-migrate patches.
// Also used by the integration test setup.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Venta{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate
// cannot fully handle on its own. Each statement uses IF NOT EXISTS semantics
// so re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// One open session per tienda. AutoMigrate cannot express a partial
		// unique index; the application-level guard in the caja repository
		// relies on this for the concurrent auto-open case.
		`CREATE UNIQUE INDEX IF NOT EXISTS uni_sesiones_caja_tienda_abierta
		    ON sesiones_caja (tienda_id)
		    WHERE abierta`,
		// Monto must be strictly positive — the ledger stores absolute
		// amounts, the sign lives in tipo.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_caja_monto_positivo') THEN
		    ALTER TABLE movimientos_caja
		      ADD CONSTRAINT chk_movimientos_caja_monto_positivo CHECK (monto > 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_caja_tipo') THEN
		    ALTER TABLE movimientos_caja
		      ADD CONSTRAINT chk_movimientos_caja_tipo CHECK (tipo IN ('ingreso', 'egreso'));
		  END IF;
		END $$`,
		// Fast path for the date-range report queries.
		`CREATE INDEX IF NOT EXISTS idx_movimientos_caja_tipo_fecha
		    ON movimientos_caja (tipo, creado_en)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
