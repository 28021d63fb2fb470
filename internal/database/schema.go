package database

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
    id CHAR(36) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    role VARCHAR(16) NOT NULL DEFAULT 'USER',
    balance DECIMAL(12,2) NOT NULL DEFAULT 0,
    referral_code VARCHAR(16) NOT NULL UNIQUE,
    is_suspended TINYINT(1) NOT NULL DEFAULT 0,
    personal_notice TEXT,
    has_unread_notice TINYINT(1) NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    CHECK (balance >= 0)
)`,
	`CREATE TABLE IF NOT EXISTS photos (
    id CHAR(36) PRIMARY KEY,
    account_id CHAR(36) NOT NULL,
    account_name VARCHAR(255) NOT NULL,
    original_image LONGTEXT NOT NULL,
    result_image LONGTEXT NOT NULL,
    options JSON NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_photos_account_created (account_id, created_at),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
)`,
	`CREATE TABLE IF NOT EXISTS generation_charges (
    account_id CHAR(36) NOT NULL,
    session_id CHAR(36) NOT NULL,
    amount DECIMAL(12,2) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (account_id, session_id),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
)`,
	`CREATE TABLE IF NOT EXISTS recharge_requests (
    id CHAR(36) PRIMARY KEY,
    account_id CHAR(36) NOT NULL,
    account_name VARCHAR(255) NOT NULL,
    amount DECIMAL(12,2) NOT NULL,
    method VARCHAR(64) NOT NULL,
    sender_number VARCHAR(64) NOT NULL,
    trx_id VARCHAR(128) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
    rejection_reason TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uniq_method_trx (method, trx_id),
    INDEX idx_recharge_status (status),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
    id TINYINT PRIMARY KEY,
    notice TEXT NOT NULL,
    helpline VARCHAR(255) NOT NULL DEFAULT '',
    generation_cost DECIMAL(12,2) NOT NULL,
    welcome_bonus DECIMAL(12,2) NOT NULL,
    admin_pin VARCHAR(32) NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
    position INT PRIMARY KEY,
    name VARCHAR(64) NOT NULL,
    number VARCHAR(64) NOT NULL,
    logo_url VARCHAR(1024) NOT NULL DEFAULT ''
)`,
}
