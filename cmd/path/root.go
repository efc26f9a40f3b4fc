package path

import (
	"fmt"

	"github.com/ValentinKolb/dIndex/cmd/util"
	"github.com/ValentinKolb/dIndex/lib/escape"
	"github.com/spf13/cobra"
)

var (
	escapeConf escape.Config

	// PathCmd groups the offline helpers for the legacy http paths
	PathCmd = &cobra.Command{
		Use:               "path",
		Short:             "Build escaped paths of the legacy http api",
		PersistentPreRunE: processPathConfig,
	}

	objectCmd = &cobra.Command{
		Use:   "object [bucket] [key]",
		Short: "Prints the path of an object",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(escapeConf.ObjectPath(args[0], args[1]))
		},
	}
	indexCmd = &cobra.Command{
		Use:   "index [bucket] [index] [term] | [bucket] [index] [start] [end]",
		Short: "Prints the path of an index query",
		Args:  cobra.RangeArgs(3, 4),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(escapeConf.IndexPath(args[0], args[1], args[2:]...))
		},
	}
	escapeCmd = &cobra.Command{
		Use:   "escape [name]",
		Short: "Escapes a bucket or key name (unless --url-decoding is set)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(escapeConf.MaybeEscape(args[0]))
		},
	}
	unescapeCmd = &cobra.Command{
		Use:   "unescape [segment]",
		Short: "Unescapes a path segment (unless --url-decoding is set)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := escapeConf.MaybeUnescape(args[0])
			if err != nil {
				return err
			}
			fmt.Println(name)
			return nil
		},
	}
)

func init() {
	PathCmd.AddCommand(objectCmd)
	PathCmd.AddCommand(indexCmd)
	PathCmd.AddCommand(escapeCmd)
	PathCmd.AddCommand(unescapeCmd)

	PathCmd.PersistentFlags().String("escaper", "uri", util.WrapString("Escaping rules to use (uri, cgi)"))
	PathCmd.PersistentFlags().Bool("url-decoding", false, util.WrapString("Set if the server url decodes names itself (escape and unescape become no-ops)"))
}

// processPathConfig reads the escaping flags
func processPathConfig(cmd *cobra.Command, _ []string) error {
	name, err := cmd.Flags().GetString("escaper")
	if err != nil {
		return err
	}
	escaper, err := escape.ParseEscaper(name)
	if err != nil {
		return err
	}
	urlDecoding, err := cmd.Flags().GetBool("url-decoding")
	if err != nil {
		return err
	}

	escapeConf = escape.Config{Escaper: escaper, URLDecoding: urlDecoding}
	return nil
}
