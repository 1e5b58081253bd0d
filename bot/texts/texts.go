// Package texts holds all user-facing Ukrainian strings and keyboard labels.
package texts

// Keyboard labels. Inbound text is matched against these verbatim.
const (
	BtnBreakdown   = "🔧 Поломка"
	BtnProfileName = "👤 Використати ім'я з профілю"
	BtnSharePhone  = "📱 Надати номер телефону"
	BtnOtherModel  = "Інша модель"
	BtnSkip        = "Пропустити"
	BtnNext        = "Далі"
	BtnConfirm     = "✅ Підтверджую"
	BtnCancel      = "❌ Скасувати"

	BtnPlasticOther = "інший тип напишу у коментарі"
	BtnPlasticSkip  = "пропустити"
)

// Sentinel stored when the plastic step is skipped.
const PlasticNotSpecified = "Не вказано"

// NoOrderSentinel marks a customer who did not buy from us (compared
// case-insensitively).
const NoOrderSentinel = "немає"

// Prompts and confirmations.
const (
	Welcome = "Вітаємо у сервісному боті Druk3D! 🖨\n\n" +
		"Тут можна оформити заявку на ремонт 3D-принтера.\n" +
		"Натисніть кнопку нижче, щоб почати."

	BreakdownStart = "📝 Почнемо оформлення заявки на ремонт!"

	RequestOrder = "🔢 Введіть номер замовлення, за яким ви купували принтер " +
		"(якщо купували не у нас, просто напишіть 'немає'):"
	AckNoOrder = "✅ Зафіксували, що ви купували не у нас"
	AckOrder   = "✅ Зафіксували номер замовлення: %s"

	RequestName    = "👤 Введіть ваше повне ПІБ або скористайтесь кнопкою нижче:"
	AckProfileName = "✅ Зафіксували ваші дані: %s"
	ErrName        = "⚠️ Будь ласка, введіть повне ПІБ (Прізвище та Ім'я обов'язково):"

	RequestPhone = "📱 Введіть ваш номер телефону у форматі +380XXXXXXXXX " +
		"або скористайтесь кнопкою нижче:"
	AckPhone = "✅ Зафіксували ваш номер телефону: %s"

	RequestPrinterModel = "🖨️ Оберіть модель вашого принтера:"
	ErrPrinterModel     = "⚠️ Будь ласка, оберіть модель принтера з клавіатури нижче:"
	RequestCustomModel  = "Введіть точну назву вашої моделі принтера:"

	RequestPlasticType = "🎨 Вкажіть тип та бренд пластику, який використовуєте:"
	ErrPlasticType     = "⚠️ Будь ласка, оберіть тип пластику з клавіатури нижче:"
	RequestCustomType  = "Будь ласка, введіть тип та бренд пластику:"

	RequestDescription = "❗ Опишіть проблему, з якою ви зіткнулися:\n\n" +
		"Будь ласка, надайте якомога більше деталей."

	RequestMedia = "📸 Надішліть фото або відео, які демонструють проблему " +
		"(до %d файлів).\n\nПісля завершення натисніть 'Далі'"
	AckMedia = "✅ Файл додано (%d/%d)\nФото: %d шт.\nВідео: %d шт.\n" +
		"Можете додати ще файли або натисніть 'Далі'"
	ErrMediaLimit = "❌ Досягнуто ліміт файлів (%d)\nНатисніть 'Далі' для продовження"
	ErrMediaSize  = "❌ Розмір файлу перевищує максимально допустимий (%d МБ)"
	ErrMediaKind  = "❌ Будь ласка, надішліть фото (JPEG/PNG) або відео (MP4), " +
		"або натисніть 'Далі'"

	ConfirmPrompt = "📋 Перевірте дані вашої заявки:\n\n%s"
	ErrConfirm    = "⚠️ Будь ласка, скористайтесь кнопками нижче:"

	Dispatched = "✅ Дякуємо! Вашу заявку прийнято.\n" +
		"Наш інженер розгляне її найближчим часом."
	Cancelled = "❌ Заявку скасовано. Щоб почати знову, натисніть кнопку нижче."

	GenericError = "😢 Сталася помилка при обробці вашого запиту.\n" +
		"Будь ласка, спробуйте знову або зверніться до адміністратора."

	EngineerErrStreak = "⚠️ Користувач %d третій раз поспіль отримує помилку обробки. " +
		"Можливо, варто зв'язатися з ним напряму."

	Reminder = "👋 Нагадування про незавершену заявку\n\n" +
		"Ви почали оформлення заявки %s тому, але не завершили її.\n\n" +
		"Продовжити можна просто наступним повідомленням."

	PhotosCaption = "📸 Фото проблеми:"
)

// Summary section labels, rendered in a fixed order.
const (
	SummaryHeader      = "🆕 Нова заявка на сервіс"
	SummaryTime        = "⏰ Дата та час: %s (Київ)"
	SummaryClient      = "👤 Клієнт: %s"
	SummaryPhone       = "📞 Телефон: %s"
	SummaryOrder       = "🔢 Номер замовлення: %s"
	SummaryNoOrder     = "🔢 Номер замовлення: купували не у нас"
	SummaryPrinter     = "🖨️ Принтер: %s"
	SummaryPlastic     = "🎨 Пластик: %s"
	SummaryDescription = "❗ Опис проблеми:\n%s"
	SummaryMedia       = "📎 Вкладення: %d фото, %d відео (надсилаються окремо)"
)
