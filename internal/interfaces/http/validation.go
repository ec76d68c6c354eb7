package http

import (
	"errors"
	"fmt"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/domain"
)

// Validator valida DTOs con etiquetas `validate` y traduce los mensajes al español.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator registra las traducciones por defecto en español.
func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	esLocale := es.New()
	uni := ut.New(esLocale, esLocale)
	trans, _ := uni.GetTranslator("es")
	if err := es_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("registrar traducciones: %w", err)
	}
	return &Validator{validate: validate, translator: trans}, nil
}

// Struct valida v. Devuelve domain.ErrValidation con el primer mensaje traducido.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, verrs[0].Translate(v.translator))
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

// bindBody decodifica el JSON del cuerpo en dst y lo valida.
func (v *Validator) bindBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: cuerpo inválido", domain.ErrValidation)
	}
	return v.Struct(dst)
}

// bindQuery decodifica la query string en dst y la valida.
func (v *Validator) bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return fmt.Errorf("%w: parámetros inválidos", domain.ErrValidation)
	}
	return v.Struct(dst)
}
