package postgres

// SQL for the sales fact table and the product sales mart.

const (
	// queryAdvisoryLock serializes mart read-modify-write per key stripe for the rest of
	// the transaction. Released automatically on commit or rollback.
	queryAdvisoryLock = `SELECT pg_advisory_xact_lock($1)`

	// queryInsertFact inserts one fact row.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	queryInsertFact = `
		INSERT INTO sales_facts (
			order_id, order_date, quantity,
			customer_id, customer_name, email, address, city, country, postcode, loyalty_card,
			product_id, coffee_type, roast_type, size, unit_price, price_per_100g, profit
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING order_id
	`

	// queryFactKey reads the mart key of a fact without locking the row, so deletes take
	// the advisory key lock before any row lock, in the same order as inserts.
	queryFactKey = `
		SELECT coffee_type, order_date
		FROM sales_facts
		WHERE order_id = $1
	`

	// queryDeleteFact removes one fact row and returns it for the compensating mart update.
	queryDeleteFact = `
		DELETE FROM sales_facts
		WHERE order_id = $1
		RETURNING ` + factColumns

	queryGetFact = `
		SELECT ` + factColumns + `
		FROM sales_facts
		WHERE order_id = $1
	`

	// queryListFacts takes optional filters: NULL dates and empty strings mean "any".
	queryListFacts = `
		SELECT ` + factColumns + `
		FROM sales_facts
		WHERE ($1::date IS NULL OR order_date >= $1::date)
		  AND ($2::date IS NULL OR order_date <= $2::date)
		  AND ($3 = '' OR country = $3)
		  AND ($4 = '' OR coffee_type = $4)
		ORDER BY order_date ASC, order_id ASC
	`

	factColumns = `
			order_id, order_date, quantity,
			customer_id, customer_name, email, address, city, country, postcode, loyalty_card,
			product_id, coffee_type, roast_type, size, unit_price, price_per_100g, profit
	`

	queryGetMartRow = `
		SELECT coffee_type, order_date, total_quantity_sold, total_sales_amount, avg_order_value
		FROM product_sales_mart
		WHERE coffee_type = $1 AND order_date = $2
	`

	queryUpsertMartRow = `
		INSERT INTO product_sales_mart (
			coffee_type, order_date, total_quantity_sold, total_sales_amount, avg_order_value, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (coffee_type, order_date)
		DO UPDATE SET
			total_quantity_sold = EXCLUDED.total_quantity_sold,
			total_sales_amount  = EXCLUDED.total_sales_amount,
			avg_order_value     = EXCLUDED.avg_order_value,
			updated_at          = EXCLUDED.updated_at
	`

	queryRemoveMartRow = `
		DELETE FROM product_sales_mart
		WHERE coffee_type = $1 AND order_date = $2
	`

	queryListMartRows = `
		SELECT coffee_type, order_date, total_quantity_sold, total_sales_amount, avg_order_value
		FROM product_sales_mart
		WHERE ($1 = '' OR coffee_type = $1)
		  AND ($2::date IS NULL OR order_date >= $2::date)
		  AND ($3::date IS NULL OR order_date <= $3::date)
		ORDER BY order_date ASC, coffee_type ASC
	`
)
