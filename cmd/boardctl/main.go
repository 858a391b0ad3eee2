// Command boardctl is an operator CLI for the visual lifecycle service. It
// drives the same REST API the dashboard UI uses.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "boardctl",
		Short:        "Drive the visual lifecycle service",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("server", "http://localhost:8080", "Base URL of the lifecycle service")
	cobra.CheckErr(viper.BindPFlag("server", root.PersistentFlags().Lookup("server")))
	viper.SetEnvPrefix("boardctl")
	viper.AutomaticEnv()

	root.AddCommand(
		newListCmd(),
		newPromoteCmd(),
		newApproveCmd(),
		newUnapproveCmd(),
		newIgnoreCmd(),
		newValidateCmd(),
	)
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list [generated|experimental|approved]",
		Short:     "List a lifecycle collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"generated", "experimental", "approved"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(http.MethodGet, "/api/v1/visuals/"+args[0], nil)
		},
	}
}

func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id> [question]",
		Short: "Promote a visual into the experimental pool",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"id": args[0]}
			if len(args) == 2 {
				body["question"] = args[1]
			}
			return request(http.MethodPost, "/api/v1/visuals/experimental", body)
		},
	}
}

func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id> <question>",
		Short: "Approve a visual with its question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(http.MethodPost, "/api/v1/visuals/approved",
				map[string]string{"id": args[0], "question": args[1]})
		},
	}
}

func newUnapproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unapprove <id>",
		Short: "Withdraw a visual from the approved collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(http.MethodDelete, "/api/v1/visuals/approved/"+args[0], nil)
		},
	}
}

func newIgnoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <id>",
		Short: "Drop a visual from the experimental or generated pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(http.MethodDelete, "/api/v1/visuals/"+args[0], nil)
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id> <question>",
		Short: "Validate a candidate question against the upstream data APIs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(http.MethodPost, "/api/v1/visuals/validate",
				map[string]string{"id": args[0], "question": args[1]})
		},
	}
}

// request performs the HTTP call and pretty-prints the JSON response.
func request(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, viper.GetString("server")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		pretty.Write(data)
	}
	fmt.Println(pretty.String())

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return nil
}
