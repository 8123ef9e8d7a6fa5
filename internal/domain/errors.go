package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrForbidden        = errors.New("acceso denegado")
	ErrJobRunning       = errors.New("job ya en ejecución")
	ErrStoreDirectory   = errors.New("no se pudo resolver las tiendas del grupo")
	ErrUnknownJobMethod = errors.New("método de job desconocido")
)
