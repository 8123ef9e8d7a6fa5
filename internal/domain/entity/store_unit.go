package entity

// StoreUnit es una tienda (system_unit) perteneciente a un grupo de establecimientos.
type StoreUnit struct {
	ID         int64
	CustomCode string
	Name       string
}

// StoreGroup grupo de tiendas que se consolidan juntas.
type StoreGroup struct {
	ID   int64
	Name string
}
