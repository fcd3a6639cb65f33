package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/starrand/internal/client"
)

func main() {
	var (
		baseURL = envOr("STAR_RANDOMNESS_URL", "http://127.0.0.1:8080")
		out     = envOr("STAR_RANDOMNESS_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:           "randctl",
		Short:         "CLI para el servidor de randomness STAR",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servidor (env STAR_RANDOMNESS_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	newClient := func() *client.Client {
		c := client.New(baseURL)
		c.HTTP.Timeout = timeout
		return c
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Muestra public key, epoch actual y próxima rotación",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newClient().Info(cmd.Context())
			if err != nil {
				return err
			}
			if out == "json" {
				return printJSON(info)
			}
			next := "-"
			if info.NextEpochTime != nil {
				next = *info.NextEpochTime
			}
			fmt.Printf("epoch=%d next=%s maxPoints=%d\npublicKey=%s\n",
				info.CurrentEpoch, next, info.MaxPoints, info.PublicKey)
			return nil
		},
	}

	var epoch int
	evalCmd := &cobra.Command{
		Use:   "eval <input>...",
		Short: "Evalúa inputs de forma oblivia y imprime la randomness (hex)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([][]byte, len(args))
			for i, a := range args {
				inputs[i] = []byte(a)
			}
			var ep *uint8
			if epoch >= 0 {
				if epoch > 255 {
					return fmt.Errorf("--epoch debe estar en [0,255]")
				}
				e := uint8(epoch)
				ep = &e
			}

			res, used, err := newClient().Evaluate(cmd.Context(), inputs, ep)
			if err != nil {
				return err
			}
			if out == "json" {
				type row struct {
					Input      string `json:"input"`
					Randomness string `json:"randomness"`
				}
				rows := make([]row, len(res))
				for i, r := range res {
					rows[i] = row{Input: string(r.Input), Randomness: hex.EncodeToString(r.Randomness)}
				}
				return printJSON(map[string]any{"epoch": used, "results": rows})
			}
			for _, r := range res {
				fmt.Printf("%s\t%s\n", r.Input, hex.EncodeToString(r.Randomness))
			}
			fmt.Fprintf(os.Stderr, "epoch=%d\n", used)
			return nil
		},
	}
	evalCmd.Flags().IntVar(&epoch, "epoch", -1, "epoch esperado (opcional; debe ser el actual)")

	root.AddCommand(infoCmd, evalCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func printJSON(v any) error {
	p, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(p))
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
