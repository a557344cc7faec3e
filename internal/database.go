package internal

import (
	"fmt"

	"AUTOFILL/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitDB connects to MySQL and makes sure every table exists. Existing
// tables are only ever extended, never rebuilt.
func InitDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	m := &migrator{db: db, logger: logger}
	if err := m.run(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database connected and migrated")
	return db, nil
}

func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type table struct {
	name   string
	create string
	// columns added after the table first shipped
	columns map[string]string
}

var tables = []table{
	{
		name: "documents",
		create: `
        CREATE TABLE IF NOT EXISTS documents (
            id varchar(191) PRIMARY KEY,
            format_id varchar(191) NOT NULL,
            format_name longtext,
            filename longtext NOT NULL,
            gcs_path longtext NOT NULL,
            gcs_path_pdf longtext,
            public_url longtext,
            file_size bigint,
            mime_type longtext,
            data json,
            submitted_by varchar(64),
            commit_sha varchar(64),
            status varchar(191) DEFAULT 'completed',
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_documents_format_id (format_id),
            INDEX idx_documents_deleted_at (deleted_at)
        )`,
		columns: map[string]string{
			"format_name":  "ALTER TABLE documents ADD COLUMN format_name longtext",
			"gcs_path_pdf": "ALTER TABLE documents ADD COLUMN gcs_path_pdf longtext",
			"public_url":   "ALTER TABLE documents ADD COLUMN public_url longtext",
			"submitted_by": "ALTER TABLE documents ADD COLUMN submitted_by varchar(64)",
			"commit_sha":   "ALTER TABLE documents ADD COLUMN commit_sha varchar(64)",
		},
	},
	{
		name: "activity_logs",
		create: `
        CREATE TABLE IF NOT EXISTS activity_logs (
            id varchar(191) PRIMARY KEY,
            method varchar(10) NOT NULL,
            path varchar(255) NOT NULL,
            session_id varchar(36),
            user_id varchar(64),
            user_agent text,
            ip_address varchar(45),
            request_body text,
            query_params text,
            status_code int NOT NULL,
            response_time bigint NOT NULL,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_activity_logs_deleted_at (deleted_at),
            INDEX idx_activity_logs_method (method),
            INDEX idx_activity_logs_path (path),
            INDEX idx_activity_logs_session_id (session_id),
            INDEX idx_activity_logs_created_at (created_at)
        )`,
		columns: map[string]string{
			"session_id": "ALTER TABLE activity_logs ADD COLUMN session_id varchar(36)",
			"user_id":    "ALTER TABLE activity_logs ADD COLUMN user_id varchar(64)",
		},
	},
	{
		name: "signatures",
		create: `
        CREATE TABLE IF NOT EXISTS signatures (
            id varchar(64) PRIMARY KEY,
            name longtext NOT NULL,
            image_data longtext,
            created_at datetime(3) NULL
        )`,
	},
	{
		name: "presets",
		create: `
        CREATE TABLE IF NOT EXISTS presets (
            id varchar(64) PRIMARY KEY,
            name longtext NOT NULL,
            data json,
            created_at datetime(3) NULL,
            last_used datetime(3) NULL
        )`,
	},
	{
		name: "workers",
		create: `
        CREATE TABLE IF NOT EXISTS workers (
            id varchar(64) PRIMARY KEY,
            nombre varchar(191) NOT NULL,
            cargo longtext,
            cedula varchar(32),
            cuadrilla_id varchar(64),
            signature_id varchar(64),
            is_active boolean DEFAULT true,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            INDEX idx_workers_cuadrilla_id (cuadrilla_id)
        )`,
		columns: map[string]string{
			"signature_id": "ALTER TABLE workers ADD COLUMN signature_id varchar(64)",
		},
	},
	{
		name: "cuadrillas",
		create: `
        CREATE TABLE IF NOT EXISTS cuadrillas (
            id varchar(64) PRIMARY KEY,
            nombre varchar(191) NOT NULL,
            descripcion longtext,
            worker_ids json,
            is_active boolean DEFAULT true,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL
        )`,
	},
	{
		name: "camionetas",
		create: `
        CREATE TABLE IF NOT EXISTS camionetas (
            id varchar(64) PRIMARY KEY,
            marca longtext,
            linea longtext,
            placa varchar(16) NOT NULL,
            modelo longtext,
            is_active boolean DEFAULT true,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL
        )`,
	},
	{
		name: "gruas",
		create: `
        CREATE TABLE IF NOT EXISTS gruas (
            id varchar(64) PRIMARY KEY,
            placa varchar(16) NOT NULL,
            marca longtext,
            modelo longtext,
            linea longtext,
            is_active boolean DEFAULT true,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL
        )`,
	},
	{
		name: "zonas",
		create: `
        CREATE TABLE IF NOT EXISTS zonas (
            id varchar(64) PRIMARY KEY,
            nombre varchar(191) NOT NULL,
            is_active boolean DEFAULT true,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL
        )`,
	},
	{
		name: "users",
		create: `
        CREATE TABLE IF NOT EXISTS users (
            id varchar(64) PRIMARY KEY,
            nombre varchar(191) NOT NULL,
            email varchar(191),
            role varchar(16),
            created_at datetime(3) NULL,
            last_login datetime(3) NULL
        )`,
	},
}

type migrator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func (m *migrator) run() error {
	for _, t := range tables {
		m.logger.Debug("ensuring table", zap.String("table", t.name))
		if err := m.db.Exec(t.create).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
		for column, stmt := range t.columns {
			if err := m.ensureColumn(t.name, column, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *migrator) ensureColumn(table, column, statement string) error {
	if m.db.Migrator().HasColumn(table, column) {
		return nil
	}

	m.logger.Info("adding missing column", zap.String("table", table), zap.String("column", column))
	if err := m.db.Exec(statement).Error; err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}
