package main

import (
	"fmt"
	"os"
	"strings"

	"minicc/internal/ast"
	"minicc/internal/codegen"
	"minicc/internal/lexer"
	"minicc/internal/parser"
	"minicc/internal/semantic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const VERSION = "0.1.0"

func main() {
	os.Exit(run())
}

func usage() {
	fmt.Println("Usage: minicc [--debug] [--ast] [-o <file>] <source.c>")
}

func run() int {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var filePath, outPath string
	debugMode, dumpAST := false, false

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--debug":
			debugMode = true
		case "--ast":
			dumpAST = true
		case "-o":
			if i+1 >= len(args) {
				usage()
				return 1
			}
			i++
			outPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				log.Error().Str("flag", arg).Msg("unknown flag")
				usage()
				return 1
			}
			filePath = arg
		}
	}
	if filePath == "" {
		usage()
		return 1
	}
	if debugMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Debug().Str("version", VERSION).Str("file", filePath).Msg("minicc starting")

	source, err := os.ReadFile(filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("cannot read source file")
		return 1
	}

	// --- Lexing ---
	tokens, lexErrors := lexer.Lex(string(source))
	for _, e := range lexErrors {
		log.Error().Msg(e.Error())
	}
	if len(lexErrors) > 0 {
		return 1
	}
	log.Debug().Int("tokens", len(tokens)).Msg("lexing complete")

	// --- Parsing ---
	program, parseErrors := parser.Parse(tokens)
	for _, e := range parseErrors {
		log.Error().Msg(e.Error())
	}
	if len(parseErrors) > 0 {
		return 1
	}
	log.Debug().Msg("parsing complete")

	if dumpAST {
		fmt.Print(ast.DebugString(program))
	}

	// --- Semantic analysis ---
	diags := semantic.Analyze(program)
	for _, d := range diags {
		if d.Severity == semantic.Error {
			log.Error().Msg(d.Error())
		} else {
			log.Warn().Msg(d.Error())
		}
	}
	if semantic.HasErrors(diags) {
		return 1
	}
	log.Debug().Msg("semantic analysis complete")

	// --- Code generation ---
	if outPath == "" {
		outPath = strings.TrimSuffix(filePath, ".c") + ".tac"
	}
	result, err := codegen.Generate(program, &codegen.Options{OutputPath: outPath})
	if err != nil {
		log.Error().Err(err).Msg("code generation failed")
		return 1
	}
	log.Info().
		Int("instructions", len(result.Listing.Instrs)).
		Str("output", result.OutputFile).
		Msg("TAC written")

	return 0
}
