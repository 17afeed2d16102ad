package auth

// Claims identifica al actor de un request (usuario de staff o tutor).
// Se usa para lastModifiedBy; la API no aplica autorización por rol.
type Claims struct {
	UserID string
	Email  string
	Role   string
}
