package identity

import (
	"time"

	"github.com/Goncalofonseca86/leirisonda/internal/common"
)

// Builtin couples a built-in identity with its fixed credential. Built-ins
// exist on every device, are never deleted, and are recreated when missing.
type Builtin struct {
	User     User
	Password string
}

// builtins is the fixed identity table, defined at process start.
var builtins = []Builtin{
	{
		User: User{
			ID:          "admin_goncalo",
			Email:       "gongonsilva@gmail.com",
			Name:        "Gonçalo Fonseca",
			Role:        RoleAdmin,
			Permissions: AllPermissions(),
		},
		Password: "19867gsf",
	},
	{
		User: User{
			ID:          "user_alexandre",
			Email:       "alexkamaryta@gmail.com",
			Name:        "Alexandre Fernandes",
			Role:        RoleUser,
			Permissions: FieldPermissions(),
		},
		Password: "69alexandre",
	},
}

// Builtins returns fresh copies of the built-in identities with CreatedAt
// stamped at call time, credential-free.
func Builtins(now time.Time) []User {
	users := make([]User, 0, len(builtins))
	for _, b := range builtins {
		u := b.User
		u.CreatedAt = now
		users = append(users, u)
	}
	return users
}

// BuiltinByEmail resolves a built-in identity by normalized email.
func BuiltinByEmail(email string) (Builtin, bool) {
	normalized := common.NormalizeEmail(email)
	for _, b := range builtins {
		if common.NormalizeEmail(b.User.Email) == normalized {
			return b, true
		}
	}
	return Builtin{}, false
}
