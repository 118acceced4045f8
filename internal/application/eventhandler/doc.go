// Package eventhandler содержит обработчики доменных событий.
// Они реагируют на изменения заявок побочными эффектами: сбрасывают кеш
// справочных панелей и пишут журнал действий администраторов.
package eventhandler
