package database

const (
	// Miner queries
	queryInsertMiner = `
		INSERT INTO miners (id, name, email) VALUES (?, ?, ?)`

	queryGetMinerById = `
		SELECT id, name, email, active, kyc_status, kyc_fee_paid, created_at, updated_at
		FROM miners
		WHERE id = ?`

	queryGetMinerByEmail = `
		SELECT id, name, email, active, kyc_status, kyc_fee_paid, created_at, updated_at
		FROM miners
		WHERE email = ?`

	queryGetActiveMiners = `
		SELECT id, name, email, active, kyc_status, kyc_fee_paid, created_at, updated_at
		FROM miners
		WHERE active = 1
		ORDER BY created_at`

	queryUpdateMinerKycStatus = `
		UPDATE miners
		SET kyc_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryUpdateMinerKycFeePaid = `
		UPDATE miners
		SET kyc_fee_paid = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Mining server queries
	queryInsertServer = `
		INSERT INTO mining_servers (id, name, location, hash_rate) VALUES (?, ?, ?, ?)`

	queryGetServers = `
		SELECT id, name, location, hash_rate, active, created_at
		FROM mining_servers
		ORDER BY created_at`

	// Contract queries
	queryInsertContract = `
		INSERT INTO mining_contracts (id, server_id, name, period_return_percent, period)
		VALUES (?, ?, ?, ?, ?)`

	queryGetContractById = `
		SELECT id, server_id, name, period_return_percent, period, active, created_at, updated_at
		FROM mining_contracts
		WHERE id = ?`

	queryGetContracts = `
		SELECT id, server_id, name, period_return_percent, period, active, created_at, updated_at
		FROM mining_contracts
		ORDER BY created_at`

	queryUpdateContract = `
		UPDATE mining_contracts
		SET period_return_percent = ?, period = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Subscription queries
	queryInsertSubscription = `
		INSERT INTO mining_subscriptions (id, contract_id, miner_id, amount_deposited, auto_accrue, total_earnings, version)
		VALUES (?, ?, ?, '0', ?, '0', 1)`

	queryGetSubscriptionById = `
		SELECT id, contract_id, miner_id, amount_deposited, auto_accrue, total_earnings, version, created_at, updated_at
		FROM mining_subscriptions
		WHERE id = ?`

	queryGetAccruableSubscriptions = `
		SELECT id, contract_id, miner_id, amount_deposited, auto_accrue, total_earnings, version, created_at, updated_at
		FROM mining_subscriptions
		WHERE auto_accrue = 1 AND CAST(amount_deposited AS REAL) > 0
		ORDER BY created_at`

	queryGetMinerSubscriptions = `
		SELECT id, contract_id, miner_id, amount_deposited, auto_accrue, total_earnings, version, created_at, updated_at
		FROM mining_subscriptions
		WHERE miner_id = ?
		ORDER BY created_at`

	queryGetSubscriptionForUpdate = `
		SELECT amount_deposited, total_earnings, version
		FROM mining_subscriptions
		WHERE id = ?`

	queryUpdateSubscriptionEarnings = `
		UPDATE mining_subscriptions
		SET total_earnings = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	queryUpdateSubscriptionDeposit = `
		UPDATE mining_subscriptions
		SET amount_deposited = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Earnings ledger queries
	queryCheckEarningExists = `
		SELECT id FROM earnings WHERE subscription_id = ? AND accrual_date = ? LIMIT 1`

	queryInsertEarning = `
		INSERT INTO earnings (id, subscription_id, amount, accrual_date, created_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetEarnings = `
		SELECT id, subscription_id, amount, accrual_date, created_at
		FROM earnings
		WHERE subscription_id = ?
		ORDER BY accrual_date DESC
		LIMIT ? OFFSET ?`

	// Amounts are stored as exact decimal strings; summing happens in Go
	// with shopspring/decimal to avoid REAL rounding in the audit path.
	queryGetEarningAmounts = `
		SELECT amount
		FROM earnings
		WHERE subscription_id = ?`

	// Accrual run status (singleton row, id is always 1)
	queryGetLastAccrualRun = `
		SELECT date_of_last_update FROM accrual_run_status WHERE id = 1`

	queryUpsertLastAccrualRun = `
		INSERT INTO accrual_run_status (id, date_of_last_update) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET date_of_last_update = excluded.date_of_last_update`

	// Wallet queries
	queryInsertWallet = `
		INSERT INTO wallets (id, label, asset, network, address) VALUES (?, ?, ?, ?, ?)`

	queryGetWallets = `
		SELECT id, label, asset, network, address, active, created_at
		FROM wallets
		WHERE active = 1
		ORDER BY created_at`

	queryFindWalletByAddress = `
		SELECT id, label, asset, network, address, active, created_at
		FROM wallets
		WHERE LOWER(address) = LOWER(?) AND active = 1`

	// Bank queries
	queryInsertBank = `
		INSERT INTO banks (id, bank_name, account_name, account_number) VALUES (?, ?, ?, ?)`

	queryGetBanks = `
		SELECT id, bank_name, account_name, account_number, active, created_at
		FROM banks
		WHERE active = 1
		ORDER BY created_at`

	// Transaction queries
	queryCheckDuplicateTransaction = `
		SELECT id FROM transactions WHERE external_transaction_id = ? LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, miner_id, subscription_id, transaction_type, method, amount,
			status, external_transaction_id, reference, created_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?)`

	queryGetTransactionById = `
		SELECT id, miner_id, subscription_id, transaction_type, method, amount,
		       status, external_transaction_id, reference, created_at, processed_at
		FROM transactions
		WHERE id = ?`

	queryGetMinerTransactions = `
		SELECT id, miner_id, subscription_id, transaction_type, method, amount,
		       status, external_transaction_id, reference, created_at, processed_at
		FROM transactions
		WHERE miner_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryUpdateTransactionStatus = `
		UPDATE transactions
		SET status = ?, processed_at = ?
		WHERE id = ? AND status = 'pending'`

	queryGetConfirmedWithdrawalAmounts = `
		SELECT amount
		FROM transactions
		WHERE subscription_id = ? AND transaction_type = 'withdrawal' AND status = 'confirmed'`
)
