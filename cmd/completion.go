package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_blackbox() {
    local cur prev words cword
    _init_completion || return

    local commands="init add extract cat ls rm passwd diff status keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        add)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-f --name --type" -- "$cur"))
            else
                _filedir
            fi
            ;;
        extract)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-f --dir --force --keep-local --keep-both --on-conflict" -- "$cur"))
            elif [[ "$prev" == "--on-conflict" ]]; then
                COMPREPLY=($(compgen -W "ask local container both abort" -- "$cur"))
            else
                _filedir -d
            fi
            ;;
        cat|rm|diff)
            local entries
            entries=$(blackbox ls 2>/dev/null | awk 'NR > 1 { print $1 }')
            COMPREPLY=($(compgen -W "$entries" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _blackbox blackbox
`

const zshCompletion = `#compdef blackbox

_blackbox() {
    local -a commands
    commands=(
        'init:Create a new encrypted container'
        'add:Store files in the container'
        'extract:Restore all entries into a directory'
        'cat:Write one entry to stdout or a file'
        'ls:List entries in the container'
        'rm:Remove entries from the container'
        'passwd:Change the container password'
        'diff:Compare entries with local files'
        'status:Show container details without a password'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'blackbox commands' commands
            ;;
        args)
            case "${words[2]}" in
                add)
                    _arguments \
                        '-f[Container file]:file:_files' \
                        '--name[Entry name]:name:' \
                        '--type[Media type]:type:' \
                        '*:file:_files'
                    ;;
                extract)
                    _arguments \
                        '-f[Container file]:file:_files' \
                        '--dir[Destination directory]:dir:_files -/' \
                        '--force[Overwrite local files without asking]' \
                        '--keep-local[Skip all conflicts, keep local versions]' \
                        '--keep-both[Keep both local and container versions]' \
                        '--on-conflict[Conflict strategy]:strategy:(ask local container both abort)'
                    ;;
                cat|rm|diff)
                    _arguments '*:entry:_blackbox_entries'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'blackbox commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_blackbox_entries() {
    local -a entries
    entries=(${(f)"$(blackbox ls 2>/dev/null | awk 'NR > 1 { print $1 }')"})
    _describe -t entries 'container entries' entries
}

_blackbox "$@"
`

const fishCompletion = `# blackbox fish completions

set -l commands init add extract cat ls rm passwd diff status keyring help completion

complete -c blackbox -f

# Commands
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a new container'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a add -d 'Store files'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a extract -d 'Restore all entries'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a cat -d 'Write one entry'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List entries'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove entries'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change password'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with local files'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show container details'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c blackbox -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# add flags and files
complete -c blackbox -n "__fish_seen_subcommand_from add" -l name -d 'Entry name'
complete -c blackbox -n "__fish_seen_subcommand_from add" -l type -d 'Media type'
complete -c blackbox -n "__fish_seen_subcommand_from add" -F

# extract flags
complete -c blackbox -n "__fish_seen_subcommand_from extract" -l dir -d 'Destination directory'
complete -c blackbox -n "__fish_seen_subcommand_from extract" -l force -d 'Overwrite local files'
complete -c blackbox -n "__fish_seen_subcommand_from extract" -l keep-local -d 'Keep local versions'
complete -c blackbox -n "__fish_seen_subcommand_from extract" -l keep-both -d 'Keep both versions'
complete -c blackbox -n "__fish_seen_subcommand_from extract" -l on-conflict -a "ask local container both abort" -d 'Conflict strategy'

# keyring subcommands
complete -c blackbox -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c blackbox -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c blackbox -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
