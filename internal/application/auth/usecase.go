package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/fluxo-estoque/internal/application/dto"
	"github.com/jhoicas/fluxo-estoque/internal/domain"
	"github.com/jhoicas/fluxo-estoque/pkg/jwt"
)

// RoleOperator rol del operador del panel.
const RoleOperator = "operador"

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Credentials usuario del panel y hash bcrypt de su contraseña (DASH_USER, DASH_PASS_HASH).
type Credentials struct {
	User     string
	PassHash string
}

// AuthUseCase login del panel de operación.
type AuthUseCase struct {
	creds  Credentials
	jwtCfg JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(creds Credentials, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{creds: creds, jwtCfg: jwtCfg}
}

// Login verifica usuario/contraseña contra las credenciales configuradas y emite un JWT.
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	if uc.creds.User == "" || uc.creds.PassHash == "" {
		return nil, domain.ErrForbidden // panel deshabilitado
	}
	if subtle.ConstantTimeCompare([]byte(in.Usuario), []byte(uc.creds.User)) != 1 {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(uc.creds.PassHash), []byte(in.Senha)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, in.Usuario, RoleOperator, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
		Operator:  in.Usuario,
	}, nil
}
