package cmd

// UsageTemplate is the cobra usage text followed by a config example.
const UsageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}

canary.yaml (optional, every key may also be set as CANARY_<KEY>)
    artifact: artifacts/contracts/CanaryDossier.sol/CanaryDossier.json
    keystore: ./keystore
    password: ""
    aliases:
      deployer: 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
    networks:
      ethereum:sepolia:
        url: ${SEPOLIA_RPC_URL}
    output: deployed_address.txt
    record_dir: deployments
    env_file: .env
    env_key: CANARY_DOSSIER_ADDRESS
    timeout: 5m
`
