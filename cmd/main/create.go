package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/CTAG07/fabricate/pkg/generators"
	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create synthetic data",
	}
	cmd.AddCommand(
		newTimestampCmd(),
		newBytesCmd(a),
		newHexCmd(a),
		newBase64Cmd(a),
		newPasswordCmd(a),
		newPassphraseCmd(a),
		newUsernameCmd(a),
		newDigitsCmd(a),
		newNumberCmd(a),
		newUUIDCmd(a),
		newCreateMarkovCmd(a),
	)
	return cmd
}

func newTimestampCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "timestamp",
		Short: "Create a timestamp of the current time",
	}
	cmd.PersistentFlags().StringVarP(&format, "format", "f", "", "iso8601, rfc2822 or rfc3339 (default \"2006-01-02 15:04:05 -07:00\")")

	zone := func(use, short string, loc func() *time.Location) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := generators.ParseTimestampFormat(format)
				if err != nil {
					return err
				}
				return emitOne(cmd, func() ([]byte, error) {
					return generators.Timestamp(time.Now().In(loc()), f), nil
				})
			},
		}
	}
	cmd.AddCommand(
		zone("utc", "Timestamp in UTC", func() *time.Location { return time.UTC }),
		zone("local", "Timestamp in the local time zone", func() *time.Location { return time.Local }),
	)
	return cmd
}

func newBytesCmd(a *app) *cobra.Command {
	var ef emitFlags
	var length int
	cmd := &cobra.Command{
		Use:   "bytes",
		Short: "Create random bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return generators.Bytes(rng, length), nil
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", 32, "number of bytes")
	ef.register(cmd)
	return cmd
}

func newHexCmd(a *app) *cobra.Command {
	var ef emitFlags
	var length int
	var upper bool
	cmd := &cobra.Command{
		Use:   "hex",
		Short: "Create random bytes encoded as hexadecimal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return generators.Hex(rng, upper, length), nil
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", 32, "number of bytes before encoding")
	cmd.Flags().BoolVarP(&upper, "uppercase", "u", false, "use upper-case digits")
	ef.register(cmd)
	return cmd
}

func newBase64Cmd(a *app) *cobra.Command {
	var ef emitFlags
	var length int
	var urlSafe bool
	cmd := &cobra.Command{
		Use:   "base64",
		Short: "Create random bytes encoded as base64",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return generators.Base64(rng, urlSafe, length), nil
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", 32, "number of bytes before encoding")
	cmd.Flags().BoolVar(&urlSafe, "url-safe", false, "use the URL-safe alphabet")
	ef.register(cmd)
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	var ef emitFlags
	var length int
	var numbers, symbols bool
	var charset string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Create random passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("charset") {
				charset = generators.Charset(numbers, symbols)
			}
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return generators.Password(rng, charset, length)
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", 16, "number of characters")
	cmd.Flags().BoolVar(&numbers, "numbers", false, "include digits")
	cmd.Flags().BoolVar(&symbols, "symbols", false, "include ASCII punctuation")
	cmd.Flags().StringVar(&charset, "charset", "", "use exactly these characters")
	cmd.MarkFlagsMutuallyExclusive("charset", "numbers")
	cmd.MarkFlagsMutuallyExclusive("charset", "symbols")
	ef.register(cmd)
	return cmd
}

func newPassphraseCmd(a *app) *cobra.Command {
	var ef emitFlags
	var length int
	var path, delimiter, separator string
	cmd := &cobra.Command{
		Use:   "passphrase",
		Short: "Create passphrases from a wordlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := generators.LoadWordlist(path, delimiter)
			if err != nil {
				return err
			}
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return generators.Passphrase(rng, words, separator, length)
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", 4, "number of words")
	cmd.Flags().StringVarP(&path, "path", "p", "", "wordlist file (default built-in list)")
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", "\n", "wordlist entry delimiter")
	cmd.Flags().StringVarP(&separator, "separator", "s", " ", "text placed between words")
	ef.register(cmd)
	return cmd
}

func newUsernameCmd(a *app) *cobra.Command {
	var capitalize bool
	cmd := &cobra.Command{
		Use:   "username",
		Short: "Create usernames",
	}
	cmd.PersistentFlags().BoolVarP(&capitalize, "capitalize", "c", false, "capitalize the name")

	var simpleFlags emitFlags
	var simpleLength int
	simple := &cobra.Command{
		Use:   "simple",
		Short: "Pronounceable names of alternating consonants and vowels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emitRecords(cmd, &simpleFlags, func(rng *rand.Rand) ([]byte, error) {
				return generators.SimpleUsername(rng, capitalize, simpleLength), nil
			})
		},
	}
	simple.Flags().IntVarP(&simpleLength, "length", "l", 8, "number of letters")
	simpleFlags.register(simple)

	var complexFlags emitFlags
	var complexLength int
	var path, delimiter string
	complexCmd := &cobra.Command{
		Use:   "complex",
		Short: "Two words and two digits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := generators.LoadWordlist(path, delimiter)
			if err != nil {
				return err
			}
			return a.emitRecords(cmd, &complexFlags, func(rng *rand.Rand) ([]byte, error) {
				return generators.ComplexUsername(rng, words, capitalize, complexLength)
			})
		},
	}
	complexCmd.Flags().IntVarP(&complexLength, "length", "l", 0, "maximum number of characters (0 for no limit)")
	complexCmd.Flags().StringVarP(&path, "path", "p", "", "wordlist file (default built-in list)")
	complexCmd.Flags().StringVarP(&delimiter, "delimiter", "d", "\n", "wordlist entry delimiter")
	complexFlags.register(complexCmd)

	cmd.AddCommand(simple, complexCmd)
	return cmd
}

func newDigitsCmd(a *app) *cobra.Command {
	var ef emitFlags
	var length int
	cmd := &cobra.Command{
		Use:   "digits",
		Short: "Create strings of random decimal digits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return generators.Digits(rng, length), nil
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", 6, "number of digits")
	ef.register(cmd)
	return cmd
}

func newNumberCmd(a *app) *cobra.Command {
	var ef emitFlags
	var minimum, maximum int64
	cmd := &cobra.Command{
		Use:   "number",
		Short: "Create random integers in a range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minimum > maximum {
				return fmt.Errorf("--min %d is greater than --max %d", minimum, maximum)
			}
			return a.emitRecords(cmd, &ef, func(rng *rand.Rand) ([]byte, error) {
				return generators.Number(rng, minimum, maximum)
			})
		},
	}
	cmd.Flags().Int64Var(&minimum, "min", 0, "smallest value (inclusive)")
	cmd.Flags().Int64Var(&maximum, "max", 100, "largest value (inclusive)")
	ef.register(cmd)
	return cmd
}

func newUUIDCmd(a *app) *cobra.Command {
	var ef emitFlags
	cmd := &cobra.Command{
		Use:   "uuid",
		Short: "Create random version 4 UUIDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emitRecords(cmd, &ef, generators.UUID)
		},
	}
	ef.register(cmd)
	return cmd
}
