package entity

// Roles del back-office.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// Actor usuario que ejecuta una mutación; viaja explícito en cada operación.
type Actor struct {
	ID   string
	Name string
	Role string // admin, bodeguero, vendedor
}

// DisplayName nombre a mostrar en los movimientos; cae al ID si el token no trae nombre.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

