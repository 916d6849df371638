package cmd

import (
	"github.com/icodezjb/canarydossier/logger"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

// promptConfirm asks a y/N question on the terminal. Anything but y is a
// no; Ctrl-C and Ctrl-D are errors.
func promptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	switch {
	case err == promptui.ErrInterrupt, err == promptui.ErrEOF:
		return false, errors.Wrap(err, "confirm")
	case err != nil:
		logger.Info("Your chose: N")
		return false, nil
	}

	logger.Info("Your chose: y")
	return true, nil
}

// promptPassword reads a keystore password without echoing it.
func promptPassword(alias string) (string, error) {
	prompt := promptui.Prompt{
		Label: "Password for " + alias,
		Mask:  '*',
	}

	password, err := prompt.Run()
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}

	return password, nil
}
