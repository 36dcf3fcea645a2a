package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return 0, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// call ejecuta el request y falla con el cuerpo si el status no es 2xx.
func (c *client) call(name, method, path string, payload any) error {
	status, body, err := c.do(method, path, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s fallo: status=%d body=%s", name, status, string(body))
	}
	c.print(status, body)
	return nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("IDGATE_URL", "http://localhost:8080")
		token   = envOr("IDGATE_TOKEN", "")
		out     = envOr("IDGATE_OUT", "text")
		timeout = 30 * time.Second
	)

	cl := &client{HTTP: &http.Client{Timeout: timeout}}

	root := &cobra.Command{
		Use:   "idgatectl",
		Short: "Cliente de línea de comandos para la API de idgate",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL, cl.Token, cl.OutFormat = baseURL, token, out
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base de la API (env IDGATE_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "Session token (env IDGATE_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	requireToken := func(cmd *cobra.Command, args []string) error {
		if token == "" {
			return fmt.Errorf("falta session token (flag --token o env IDGATE_TOKEN)")
		}
		return nil
	}

	// register
	var regName, regEmail, regPassword string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Crear una identidad con email y password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if regEmail == "" || regPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			return cl.call("register", http.MethodPost, "/v1/auth/register", map[string]string{
				"name": regName, "email": regEmail, "password": regPassword,
			})
		},
	}
	registerCmd.Flags().StringVar(&regName, "name", "", "Nombre visible")
	registerCmd.Flags().StringVar(&regEmail, "email", "", "Email")
	registerCmd.Flags().StringVar(&regPassword, "password", "", "Password")

	// login
	var loginEmail, loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login con email y password; imprime el session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			return cl.call("login", http.MethodPost, "/v1/auth/login", map[string]string{
				"email": loginEmail, "password": loginPassword,
			})
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password")

	exchangeCmd := &cobra.Command{
		Use:   "exchange CODE",
		Short: "Canjear un exchange code (verificación u OAuth) por un session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("exchange", http.MethodPost, "/v1/auth/exchange-code", map[string]string{"code": args[0]})
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Consultar si el token actual es una sesión válida",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("whoami", http.MethodGet, "/v1/auth/is-authenticated", nil)
		},
	}

	profileCmd := &cobra.Command{
		Use:     "profile",
		Short:   "Ver el perfil de la sesión actual",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("profile", http.MethodGet, "/v1/profile/", nil)
		},
	}

	// update-profile: solo se envían los flags que el usuario pasó.
	var updName, updPhone, updPassword string
	var upd2FA bool
	updateCmd := &cobra.Command{
		Use:     "update-profile",
		Short:   "Modificar nombre, teléfono, password o 2FA",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{}
			if cmd.Flags().Changed("name") {
				payload["name"] = updName
			}
			if cmd.Flags().Changed("phone") {
				payload["phoneNumber"] = updPhone
			}
			if cmd.Flags().Changed("password") {
				payload["password"] = updPassword
			}
			if cmd.Flags().Changed("2fa") {
				payload["is2FAEnabled"] = upd2FA
			}
			if len(payload) == 0 {
				return fmt.Errorf("nada para modificar (--name, --phone, --password, --2fa)")
			}
			return cl.call("update-profile", http.MethodPut, "/v1/profile/", payload)
		},
	}
	updateCmd.Flags().StringVar(&updName, "name", "", "Nuevo nombre")
	updateCmd.Flags().StringVar(&updPhone, "phone", "", "Teléfono en formato E.164")
	updateCmd.Flags().StringVar(&updPassword, "password", "", "Nueva password")
	updateCmd.Flags().BoolVar(&upd2FA, "2fa", false, "Habilitar/deshabilitar step-up por SMS")

	historyCmd := &cobra.Command{
		Use:     "history",
		Short:   "Listar el historial de logins",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("history", http.MethodGet, "/v1/profile/login-history", nil)
		},
	}

	sendOTPCmd := &cobra.Command{
		Use:     "send-otp",
		Short:   "Enviar el código de step-up por SMS",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("send-otp", http.MethodPost, "/v1/auth/send-otp", nil)
		},
	}

	verifyOTPCmd := &cobra.Command{
		Use:     "verify-otp CODE",
		Short:   "Completar el step-up; imprime el session token completo",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("código inválido %q", args[0])
			}
			return cl.call("verify-otp", http.MethodPost, "/v1/auth/verify-otp", map[string]string{"code": args[0]})
		},
	}

	resendCmd := &cobra.Command{
		Use:     "resend-verification",
		Short:   "Reenviar el email de verificación",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("resend-verification", http.MethodPost, "/v1/auth/resend-verification", nil)
		},
	}

	forgotCmd := &cobra.Command{
		Use:   "forgot EMAIL",
		Short: "Pedir el email de reset de password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("forgot", http.MethodPost, "/v1/auth/forgot-password", map[string]string{"email": args[0]})
		},
	}

	var resetToken, resetPassword string
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Fijar una nueva password con el token del email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resetToken == "" || resetPassword == "" {
				return fmt.Errorf("--reset-token y --password son requeridos")
			}
			return cl.call("reset", http.MethodPost, "/v1/auth/reset-password", map[string]string{
				"token": resetToken, "password": resetPassword,
			})
		},
	}
	resetCmd.Flags().StringVar(&resetToken, "reset-token", "", "Token recibido por email")
	resetCmd.Flags().StringVar(&resetPassword, "password", "", "Nueva password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Revocar el session token actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("logout", http.MethodPost, "/v1/auth/logout", nil)
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Consultar /readyz",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("health", http.MethodGet, "/readyz", nil)
		},
	}

	// keys: no habla con la API, genera material para jwt.keys.
	keysCmd := &cobra.Command{Use: "keys", Short: "Claves de firma de sesiones"}
	keysCmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Generar una seed Ed25519 nueva (agregar al inicio de JWT_KEYS para rotar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := jwtx.NewSeed()
			if err != nil {
				return err
			}
			fmt.Println(seed)
			return nil
		},
	})

	root.AddCommand(
		registerCmd, loginCmd, exchangeCmd, whoamiCmd,
		profileCmd, updateCmd, historyCmd,
		sendOTPCmd, verifyOTPCmd, resendCmd,
		forgotCmd, resetCmd, logoutCmd,
		healthCmd, keysCmd,
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
