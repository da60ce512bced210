// Package auth runs the login, registration and profile flows on top of
// the gateway and the session.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rsilvagit/go-empleo/internal/errors"
	"github.com/rsilvagit/go-empleo/internal/model"
	"github.com/rsilvagit/go-empleo/internal/session"
)

// Gateway is the subset of the API client the auth flows need.
type Gateway interface {
	Login(ctx context.Context, email, password string) (model.Credentials, error)
	Register(ctx context.Context, data model.RegisterData) (model.Credentials, error)
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterForm struct {
	FullName          string `json:"fullName" validate:"required,min=2"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=6"`
	ConfirmPassword   string `json:"confirmPassword" validate:"required,eqfield=Password"`
	ProfessionalTitle string `json:"professionalTitle"`
	Company           string `json:"company"`
}

// ProfilePatch lists the profile fields to change; nil fields are kept.
type ProfilePatch struct {
	FullName          *string  `json:"fullName" validate:"omitempty,min=2"`
	ProfessionalTitle *string  `json:"professionalTitle"`
	Company           *string  `json:"company"`
	Location          *string  `json:"location"`
	Bio               *string  `json:"bio" validate:"omitempty,max=500"`
	Skills            []string `json:"skills"`
}

// FormError maps form fields to the message shown next to them.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "auth: invalid form: " + strings.Join(parts, "; ")
}

type Service struct {
	gw       Gateway
	session  *session.Session
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(gw Gateway, sess *session.Session, logger *zap.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{gw: gw, session: sess, validate: v, logger: logger}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	form := LoginForm{Email: strings.TrimSpace(email), Password: password}
	if err := s.check(form); err != nil {
		return nil, err
	}

	creds, err := s.gw.Login(ctx, form.Email, form.Password)
	if err != nil {
		s.logger.Info("login rejected", zap.String("email", form.Email), zap.Error(err))
		return nil, err
	}
	return s.session.Establish(ctx, creds, nil)
}

func (s *Service) Register(ctx context.Context, form RegisterForm) (*model.User, error) {
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	form.ProfessionalTitle = strings.TrimSpace(form.ProfessionalTitle)
	form.Company = strings.TrimSpace(form.Company)
	if err := s.check(form); err != nil {
		return nil, err
	}

	creds, err := s.gw.Register(ctx, model.RegisterData{
		FullName:          form.FullName,
		Email:             form.Email,
		Password:          form.Password,
		ProfessionalTitle: form.ProfessionalTitle,
		Company:           form.Company,
	})
	if err != nil {
		s.logger.Info("registration rejected", zap.String("email", form.Email), zap.Error(err))
		return nil, err
	}
	return s.session.Establish(ctx, creds, &model.User{
		FullName:          form.FullName,
		ProfessionalTitle: form.ProfessionalTitle,
		Company:           form.Company,
	})
}

// UpdateProfile merges patch into the signed-in user and stores it so
// later sessions of the same account see it.
func (s *Service) UpdateProfile(ctx context.Context, patch ProfilePatch) (*model.User, error) {
	if patch.FullName != nil {
		trimmed := strings.TrimSpace(*patch.FullName)
		patch.FullName = &trimmed
	}
	if err := s.check(patch); err != nil {
		return nil, err
	}
	return s.session.UpdateUser(ctx, func(u *model.User) {
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = strings.TrimSpace(*v)
			}
		}
		set(&u.FullName, patch.FullName)
		set(&u.ProfessionalTitle, patch.ProfessionalTitle)
		set(&u.Company, patch.Company)
		set(&u.Location, patch.Location)
		set(&u.Bio, patch.Bio)
		if patch.Skills != nil {
			u.Skills = append([]string(nil), patch.Skills...)
		}
	})
}

func (s *Service) check(form any) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.InvalidInput("formulario no válido", err)
	}
	fe := &FormError{Fields: make(map[string]string, len(verrs))}
	for _, v := range verrs {
		fe.Fields[v.Field()] = message(v)
	}
	return fe
}

func message(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "Este campo es obligatorio"
	case "email":
		return "Introduce un correo electrónico válido"
	case "eqfield":
		return "Las contraseñas no coinciden"
	case "min":
		if v.Field() == "password" {
			return fmt.Sprintf("La contraseña debe tener al menos %s caracteres", v.Param())
		}
		return fmt.Sprintf("Debe tener al menos %s caracteres", v.Param())
	case "max":
		return fmt.Sprintf("No puede superar los %s caracteres", v.Param())
	}
	return "Valor no válido"
}
