package auth

// Permission levels; each one includes the ones below.
const (
	VER         = 1
	MODIFICAR   = 2
	CREAR       = 3
	ADMINISTRAR = 4
)

// Can reports whether perms grant at least nivel on modulo.
func Can(perms map[string]int, modulo string, nivel int) bool {
	return perms[modulo] >= nivel
}
