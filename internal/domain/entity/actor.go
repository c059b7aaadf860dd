package entity

// Roles que entrega el colaborador de autenticación.
const (
	RoleAdmin     = "admin"
	RoleCustodian = "bodeguero"
	RoleCourier   = "corredor"
	RoleSeller    = "vendedor"
)

// Actor identidad con la que se ejecuta un comando: (usuario, rol, ubicaciones gestionadas).
// El motor la trata como un oráculo opaco de autorización.
type Actor struct {
	UserID             string
	CompanyID          string
	Role               string
	ManagedLocationIDs []string
}

// Is indica si el actor tiene alguno de los roles dados.
func (a Actor) Is(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Manages indica si el actor gestiona la ubicación. Un admin gestiona todas las de su empresa.
func (a Actor) Manages(locationID string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, id := range a.ManagedLocationIDs {
		if id == locationID {
			return true
		}
	}
	return false
}
