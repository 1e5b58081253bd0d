package flow

import (
	tele "gopkg.in/telebot.v4"

	"github.com/druk3d/servicebot/bot/texts"
	"github.com/druk3d/servicebot/bot/validate"
	"github.com/druk3d/servicebot/core/telegram/keyboard"
)

func removeKeyboard() *tele.ReplyMarkup {
	return keyboard.RemoveKeyboard()
}

func startKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{texts.BtnBreakdown})
}

func nameKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{texts.BtnProfileName})
}

func phoneKeyboard() *tele.ReplyMarkup {
	return keyboard.ContactRow(texts.BtnSharePhone)
}

func modelKeyboard() *tele.ReplyMarkup {
	models := validate.PrinterModels()
	var rows [][]string
	for i := 0; i < len(models); i += 2 {
		end := i + 2
		if end > len(models) {
			end = len(models)
		}
		rows = append(rows, models[i:end])
	}
	rows = append(rows, []string{texts.BtnOtherModel}, []string{texts.BtnSkip})
	return keyboard.ReplyButtons(rows...)
}

func plasticKeyboard() *tele.ReplyMarkup {
	rows := make([][]string, 0, len(validate.PlasticTypes())+2)
	for _, label := range validate.PlasticTypes() {
		rows = append(rows, []string{label})
	}
	rows = append(rows, []string{texts.BtnPlasticOther}, []string{texts.BtnPlasticSkip})
	return keyboard.ReplyButtons(rows...)
}

func mediaKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{texts.BtnNext})
}

func confirmKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{texts.BtnConfirm, texts.BtnCancel})
}
