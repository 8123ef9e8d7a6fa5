package postgres

import (
	"context"
	"fmt"
)

// schema tablas que lee y escribe el motor. Idempotente (IF NOT EXISTS).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS system_unit (
		id          BIGINT PRIMARY KEY,
		custom_code TEXT,
		name        TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS grupo_estabelecimento (
		id        BIGINT PRIMARY KEY,
		nome      TEXT,
		consolida SMALLINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS grupo_estabelecimento_rel (
		grupo_id       BIGINT NOT NULL,
		system_unit_id BIGINT NOT NULL REFERENCES system_unit(id),
		PRIMARY KEY (grupo_id, system_unit_id)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		system_unit_id BIGINT NOT NULL,
		codigo         TEXT NOT NULL,
		nome           TEXT,
		preco_custo    NUMERIC(18,4) DEFAULT 0,
		categoria      TEXT,
		insumo         SMALLINT NOT NULL DEFAULT 0,
		saldo          NUMERIC(18,3) NOT NULL DEFAULT 0,
		ultimo_doc     TEXT,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (system_unit_id, codigo)
	)`,
	`CREATE TABLE IF NOT EXISTS movimentacao (
		id             BIGSERIAL PRIMARY KEY,
		system_unit_id BIGINT NOT NULL,
		produto        TEXT NOT NULL,
		data           DATE NOT NULL,
		tipo_mov       TEXT NOT NULL,
		doc            TEXT,
		quantidade     NUMERIC(18,3) NOT NULL,
		status         SMALLINT NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movimentacao_unit_prod_data ON movimentacao (system_unit_id, produto, data, id)`,
	`CREATE INDEX IF NOT EXISTS idx_movimentacao_unit_data ON movimentacao (system_unit_id, data)`,
	flowTableDDL("fluxo_estoque"),
	flowTableDDL("diferencas_estoque"),
	`CREATE TABLE IF NOT EXISTS disparos (
		id              BIGSERIAL PRIMARY KEY,
		nome            TEXT NOT NULL,
		metodo          TEXT NOT NULL,
		cron_expr       TEXT NOT NULL,
		ativo           SMALLINT NOT NULL DEFAULT 1,
		ultima_execucao TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS disparos_logs (
		id         BIGSERIAL PRIMARY KEY,
		disparo_id BIGINT NOT NULL,
		run_id     TEXT,
		status     TEXT NOT NULL,
		mensagem   TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func flowTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		data               DATE NOT NULL,
		system_unit_id     BIGINT NOT NULL,
		produto            TEXT NOT NULL,
		nome_produto       TEXT,
		categoria          TEXT,
		preco_custo        NUMERIC(18,4),
		doc                TEXT,
		saldo_anterior     NUMERIC(18,3) NOT NULL,
		entradas           NUMERIC(18,3) NOT NULL,
		saidas             NUMERIC(18,3) NOT NULL,
		contagem_ideal     NUMERIC(18,3) NOT NULL,
		contagem_realizada NUMERIC(18,3) NOT NULL,
		diferenca          NUMERIC(18,3) NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (data, system_unit_id, produto)
	)`, table)
}

// Migrate crea las tablas que faltan.
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
