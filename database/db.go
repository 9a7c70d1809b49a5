package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/freteops/ctecancel/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = CreateAuthorizationTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// CreateAuthorizationTable creates the PostgreSQL table for Authorization
// records. The UNIQUE constraint over the natural key is what makes
// concurrent duplicate imports safe: the bulk insert skips conflicting
// rows instead of erroring.
func CreateAuthorizationTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS authorizations (
			id SERIAL PRIMARY KEY,
			authorization_id TEXT NOT NULL UNIQUE,
			authorization_number TEXT NOT NULL,
			external_id TEXT NOT NULL,
			cte_key TEXT,
			xml TEXT,
			status TEXT NOT NULL DEFAULT 'PENDING',
			error_message TEXT,
			xml_event TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			sent_at TIMESTAMP,
			UNIQUE (authorization_number, external_id)
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_authorizations_cte_key ON authorizations (cte_key)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_authorizations_status ON authorizations (status)`)
	return err
}
