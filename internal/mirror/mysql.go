package mirror

import (
	"database/sql"
	"fmt"

	"ela-checkout/internal/config"
	"ela-checkout/internal/logger"
	"ela-checkout/internal/models"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewMySQLStoreWithDB creates a mirror store over an existing connection.
func NewMySQLStoreWithDB(db *sql.DB, log *logger.Logger) (*MySQLStore, error) {
	store := &MySQLStore{db: db, log: log}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize mirror tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize mirror tables: %w", err)
	}

	log.Info("DATABASE", "Mirror storage initialized with existing connection")
	return store, nil
}

func NewMySQLStore(cfg config.MirrorConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL mirror at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &MySQLStore{db: db, log: log}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL mirror connection established and tables initialized")
	return store, nil
}

func (s *MySQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating mirror tables if not exist")

	ordersQuery := `
    CREATE TABLE IF NOT EXISTS orders (
        id INT AUTO_INCREMENT PRIMARY KEY,
        full_name VARCHAR(255) NOT NULL,
        email VARCHAR(255) NOT NULL,
        phone VARCHAR(50) NOT NULL,
        birth_date VARCHAR(20),
        cpf VARCHAR(20),
        cnpj VARCHAR(25),
        area_atuacao VARCHAR(100),
        tier VARCHAR(50) NOT NULL,
        amount_cents INT NOT NULL,
        payment_method VARCHAR(50),
        payment_status VARCHAR(50) NOT NULL DEFAULT 'pending',
        stripe_payment_intent_id VARCHAR(255),
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
    `

	if _, err := s.db.Exec(ordersQuery); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	leadsQuery := `
    CREATE TABLE IF NOT EXISTS leads (
        id INT AUTO_INCREMENT PRIMARY KEY,
        email VARCHAR(255) NOT NULL,
        phone VARCHAR(50) NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
    `

	if _, err := s.db.Exec(leadsQuery); err != nil {
		return fmt.Errorf("failed to create leads table: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", "Mirror tables ready")
	return nil
}

// InsertOrder duplicates an order row into the mirror.
func (s *MySQLStore) InsertOrder(order *models.Order) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Mirroring order %s", order.ID))

	query := `
    INSERT INTO orders (
        full_name, email, phone, birth_date, cpf, cnpj, area_atuacao,
        tier, amount_cents, payment_method, payment_status, stripe_payment_intent_id
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	_, err := s.db.Exec(query,
		order.FullName, order.Email, order.Phone,
		nullable(order.BirthDate), nullable(order.CPF), nullable(order.CNPJ), nullable(order.AreaAtuacao),
		order.Tier, order.AmountCents, nullable(order.PaymentMethod), string(order.PaymentStatus),
		order.StripePaymentIntentID,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to mirror order %s: %s", order.ID, err.Error()))
		return fmt.Errorf("failed to mirror order: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Order %s mirrored", order.ID))
	return nil
}

// UpdateOrderStatus overwrites the mirrored status and payment method,
// keyed by the payment intent ID. Last write wins.
func (s *MySQLStore) UpdateOrderStatus(intentID string, status models.PaymentStatus, paymentMethod string) error {
	s.log.LogDatabase("UPDATE", "mysql", fmt.Sprintf("Updating mirrored order for intent %s to %s", intentID, status))

	query := `
    UPDATE orders SET payment_status = ?, payment_method = ?
    WHERE stripe_payment_intent_id = ?
    `

	_, err := s.db.Exec(query, string(status), nullable(paymentMethod), intentID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update mirrored order for intent %s: %s", intentID, err.Error()))
		return fmt.Errorf("failed to update mirrored order: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Mirrored order updated for intent %s", intentID))
	return nil
}

// InsertLead duplicates a lead row into the mirror.
func (s *MySQLStore) InsertLead(lead *models.Lead) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Mirroring lead %s", lead.ID))

	_, err := s.db.Exec(`INSERT INTO leads (email, phone) VALUES (?, ?)`, lead.Email, lead.Phone)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to mirror lead %s: %s", lead.ID, err.Error()))
		return fmt.Errorf("failed to mirror lead: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Lead %s mirrored", lead.ID))
	return nil
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL mirror connection")
	return s.db.Close()
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
