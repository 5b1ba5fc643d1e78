package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin          = "admin"
	RoleComercial      = "comercial"
	RoleArea           = "area"
	RoleAdministracion = "administracion"
	RoleFinanzas       = "finanzas"
)

// ValidRole indica si el rol es uno de los soportados.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleComercial, RoleArea, RoleAdministracion, RoleFinanzas:
		return true
	}
	return false
}

// User representa un usuario del sistema. El rol define qué pantallas y acciones habilita.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
