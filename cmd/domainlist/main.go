/*
Package main is the entry point for the domainlist command.

domainlist turns the CSV produced by merklescrape into the plain text list the
website serves: one unique domain per line, in the order first seen. Wildcard
entries are dropped unless --keep-wildcards is given.
*/
package main

/*
merklescrape — MerkleMap search scraper for Certificate Transparency data
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	outio "github.com/x-stp/merklescrape/internal/io"
)

var (
	inputFile     string
	outputFile    string
	keepWildcards bool
)

var rootCmd = &cobra.Command{
	Use:           "domainlist",
	Short:         "domainlist - Export unique domains from the scraper CSV as a plain list",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Printf("Exporting domains: input='%s', output='%s', keep-wildcards=%t", inputFile, outputFile, keepWildcards)
		stats, err := outio.ExportDomainList(inputFile, outputFile, outio.ExportOptions{KeepWildcards: keepWildcards})
		if err != nil {
			return err
		}
		fmt.Printf("Read %s rows from %s\n", humanize.Comma(int64(stats.Rows)), inputFile)
		fmt.Printf("Wrote %s unique domains (%s) to %s\n",
			humanize.Comma(int64(stats.Unique)), humanize.Bytes(uint64(stats.Bytes)), outputFile)
		fmt.Printf("Skipped %s duplicates and %s empty or wildcard entries\n",
			humanize.Comma(int64(stats.Duplicates)), humanize.Comma(int64(stats.Skipped)))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", outio.DefaultOutputFile, "CSV file written by merklescrape")
	rootCmd.Flags().StringVarP(&outputFile, "out", "o", outio.DefaultDomainListFile, "Destination of the domain list")
	rootCmd.Flags().BoolVar(&keepWildcards, "keep-wildcards", false, "Keep *. entries in the list")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
